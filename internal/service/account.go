package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/solo_shop/internal/events"
	"github.com/Skotchmaster/solo_shop/internal/hash"
	"github.com/Skotchmaster/solo_shop/internal/logging"
	"github.com/Skotchmaster/solo_shop/internal/models"
	"github.com/Skotchmaster/solo_shop/internal/repo"
	"github.com/Skotchmaster/solo_shop/internal/tokens"
)

var checkPassword = hash.CheckPassword

const (
	minPasswordLen = 8
	maxUsernameLen = 150
)

type AccountService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Service
	Events events.Publisher
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

type ProfilePatch struct {
	Email     *string
	FirstName *string
	LastName  *string
}

type AuthResult struct {
	User   *models.User
	Tokens tokens.Pair
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", fmt.Errorf("%w: enter a valid email address", ErrValidation)
	}
	return strings.ToLower(addr.Address), nil
}

func (in RegisterInput) validate() (RegisterInput, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return in, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(in.Username) > maxUsernameLen {
		return in, fmt.Errorf("%w: username is too long", ErrValidation)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return in, err
	}
	in.Email = email
	if len(in.Password) < minPasswordLen {
		return in, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if in.PasswordConfirm != "" && in.PasswordConfirm != in.Password {
		return in, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	return in, nil
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}

	passwordHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: passwordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: user with this username or email already exists", ErrConflict)
		}
		return nil, err
	}

	pair, err := s.Tokens.Issue(user.ID, user.IsStaff)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUser, events.Event{Type: "user_registered", UserID: user.ID})
	return &AuthResult{User: user, Tokens: pair}, nil
}

func (s *AccountService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.Repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			checkPassword(hash.DummyHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.Tokens.Issue(user.ID, user.IsStaff)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUser, events.Event{Type: "user_logged_in", UserID: user.ID})
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Logout revokes the refresh token when one is given. It never fails; the
// result is only logged.
func (s *AccountService) Logout(ctx context.Context, refresh string) tokens.RevokeResult {
	if refresh == "" {
		return tokens.RevokeResult{}
	}
	res := s.Tokens.Revoke(ctx, refresh)
	l := logging.FromContext(ctx)
	switch {
	case res.Err != nil:
		l.Warn("revoke_refresh_failed", "error", res.Err)
	case res.AlreadyRevoked:
		l.Info("refresh_already_revoked")
	}
	return res
}

func (s *AccountService) RefreshAccess(ctx context.Context, refresh string) (string, time.Time, error) {
	if refresh == "" {
		return "", time.Time{}, fmt.Errorf("%w: refresh token is required", ErrUnauthorized)
	}
	access, exp, err := s.Tokens.Refresh(ctx, refresh)
	if err != nil {
		if errors.Is(err, tokens.ErrInvalidToken) || errors.Is(err, tokens.ErrTokenRevoked) {
			return "", time.Time{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return "", time.Time{}, err
	}
	return access, exp, nil
}

func (s *AccountService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, patch ProfilePatch) (*models.User, error) {
	updates := map[string]any{}
	if patch.Email != nil {
		email, err := normalizeEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		updates["email"] = email
	}
	if patch.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*patch.LastName)
	}

	user, err := s.Repo.UpdateUser(ctx, userID, updates)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		case errors.Is(err, repo.ErrDuplicate):
			return nil, fmt.Errorf("%w: email is already in use", ErrConflict)
		}
		return nil, err
	}
	return user, nil
}
