package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Blacklist persists revoked refresh token ids.
type Blacklist interface {
	// Add reports false when the jti was already present.
	Add(ctx context.Context, jti string, userID uint, expiresAt time.Time) (bool, error)
	Contains(ctx context.Context, jti string) (bool, error)
}

type Pair struct {
	Access     string
	Refresh    string
	AccessExp  time.Time
	RefreshExp time.Time
}

type RevokeResult struct {
	Revoked        bool
	AlreadyRevoked bool
	Err            error
}

type Service struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Blacklist     Blacklist

	now func() time.Time
}

func NewService(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration, bl Blacklist) *Service {
	return &Service{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Blacklist:     bl,
		now:           time.Now,
	}
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Service) Issue(userID uint, staff bool) (Pair, error) {
	now := s.clock()

	access, accessExp, err := s.signAccess(userID, staff, now)
	if err != nil {
		return Pair{}, err
	}

	refreshExp := now.Add(s.RefreshTTL)
	rc := RefreshClaims{
		Type:  TypeRefresh,
		Staff: staff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   formatSubject(userID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rc).SignedString(s.RefreshSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return Pair{Access: access, Refresh: refresh, AccessExp: accessExp, RefreshExp: refreshExp}, nil
}

func (s *Service) signAccess(userID uint, staff bool, now time.Time) (string, time.Time, error) {
	exp := now.Add(s.AccessTTL)
	claims := AccessClaims{
		Type:  TypeAccess,
		Staff: staff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   formatSubject(userID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.AccessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// ValidateAccess never touches the store.
func (s *Service) ValidateAccess(token string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parse(token, &claims, s.AccessSecret); err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess {
		return nil, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (s *Service) parseRefresh(token string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parse(token, &claims, s.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.Type != TypeRefresh || claims.ID == "" {
		return nil, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (s *Service) ValidateRefresh(ctx context.Context, token string) (*RefreshClaims, error) {
	claims, err := s.parseRefresh(token)
	if err != nil {
		return nil, err
	}
	if s.Blacklist != nil {
		revoked, err := s.Blacklist.Contains(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check blacklist: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Refresh mints a new access token. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refresh string) (string, time.Time, error) {
	claims, err := s.ValidateRefresh(ctx, refresh)
	if err != nil {
		return "", time.Time{}, err
	}
	userID, _ := claims.UserID()
	return s.signAccess(userID, claims.Staff, s.clock())
}

// Revoke blacklists the refresh token's jti. Expired tokens are still
// recorded when their signature is good, so a replay is refused either way.
func (s *Service) Revoke(ctx context.Context, refresh string) RevokeResult {
	if s.Blacklist == nil {
		return RevokeResult{Err: errors.New("no blacklist configured")}
	}

	var claims RefreshClaims
	err := parse(refresh, &claims, s.RefreshSecret)
	if err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
		return RevokeResult{Err: err}
	}
	if claims.Type != TypeRefresh || claims.ID == "" {
		return RevokeResult{Err: fmt.Errorf("%w: wrong token type", ErrInvalidToken)}
	}
	userID, err := claims.UserID()
	if err != nil {
		return RevokeResult{Err: err}
	}

	exp := s.clock().Add(s.RefreshTTL)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}

	added, err := s.Blacklist.Add(ctx, claims.ID, userID, exp)
	if err != nil {
		return RevokeResult{Err: fmt.Errorf("blacklist token: %w", err)}
	}
	if !added {
		return RevokeResult{AlreadyRevoked: true}
	}
	return RevokeResult{Revoked: true}
}
