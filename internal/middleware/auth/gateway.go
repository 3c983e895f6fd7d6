package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/solo_shop/internal/logging"
	"github.com/Skotchmaster/solo_shop/internal/tokens"
)

const identityKey = "identity"

type Identity struct {
	UserID  uint
	Staff   bool
	TokenID string
}

type AccessValidator interface {
	ValidateAccess(token string) (*tokens.AccessClaims, error)
}

// Gateway turns request credentials into an Identity. The Authorization
// header wins over the access cookie.
type Gateway struct {
	Cookies   CookieConfig
	Validator AccessValidator
}

func NewGateway(cookies CookieConfig, v AccessValidator) *Gateway {
	return &Gateway{Cookies: cookies.withDefaults(), Validator: v}
}

// bearerToken returns the token of a "Bearer <token>" header value.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// authorizationHeader picks the header to authenticate with. A cookie value
// is rewritten into header form so both sources share one parsing path.
func (g *Gateway) authorizationHeader(r *http.Request) string {
	if h := r.Header.Get(echo.HeaderAuthorization); bearerToken(h) != "" {
		return h
	}
	if ck, err := r.Cookie(g.Cookies.AccessName); err == nil && ck.Value != "" {
		return "Bearer " + ck.Value
	}
	return ""
}

// Resolve never fails; bad or missing credentials leave the request anonymous.
func (g *Gateway) Resolve(r *http.Request) (Identity, bool) {
	token := bearerToken(g.authorizationHeader(r))
	if token == "" {
		return Identity{}, false
	}
	claims, err := g.Validator.ValidateAccess(token)
	if err != nil {
		logging.FromContext(r.Context()).Debug("access_token_rejected", "error", err)
		return Identity{}, false
	}
	userID, err := claims.UserID()
	if err != nil {
		return Identity{}, false
	}
	return Identity{UserID: userID, Staff: claims.Staff, TokenID: claims.ID}, true
}

func (g *Gateway) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if id, ok := g.Resolve(c.Request()); ok {
			c.Set(identityKey, id)
			req := c.Request()
			l := logging.FromContext(req.Context()).With("user_id", id.UserID)
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))
		}
		return next(c)
	}
}

func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := IdentityFrom(c); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
		}
		return next(c)
	}
}

func RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
		}
		if !id.Staff {
			return echo.NewHTTPError(http.StatusForbidden, "staff access required")
		}
		return next(c)
	}
}
