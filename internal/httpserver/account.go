package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/solo_shop/internal/logging"
	"github.com/Skotchmaster/solo_shop/internal/middleware/auth"
	"github.com/Skotchmaster/solo_shop/internal/service"
	"github.com/Skotchmaster/solo_shop/internal/tokens"
	"github.com/Skotchmaster/solo_shop/internal/transport"
)

type AccountHTTP struct {
	Svc     *service.AccountService
	Cookies auth.CookieConfig
}

func (h *AccountHTTP) setTokenCookies(c echo.Context, pair tokens.Pair) {
	c.SetCookie(h.Cookies.Issue(h.Cookies.AccessName, pair.Access, time.Until(pair.AccessExp)))
	c.SetCookie(h.Cookies.Issue(h.Cookies.RefreshName, pair.Refresh, time.Until(pair.RefreshExp)))
}

func (h *AccountHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "register_error", "invalid body")
	}

	res, err := h.Svc.Register(ctx, service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		return respondError(c, l, "register_error", err)
	}

	h.setTokenCookies(c, res.Tokens)
	l.Info("user registered", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, transport.AuthResponse{
		User:    transport.NewUserResponse(res.User),
		Access:  res.Tokens.Access,
		Refresh: res.Tokens.Refresh,
		Message: "User registered successfully",
	})
}

func (h *AccountHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "login_error", "invalid body")
	}
	if req.Username == "" || req.Password == "" {
		return badRequest(c, l, "login_error", "username and password are required")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return respondError(c, l, "login_error", err)
	}

	h.setTokenCookies(c, res.Tokens)
	l.Info("user logged in", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.AuthResponse{
		User:    transport.NewUserResponse(res.User),
		Access:  res.Tokens.Access,
		Refresh: res.Tokens.Refresh,
		Message: "Login successful",
	})
}

// refreshFromRequest prefers the body field over the refresh cookie.
func (h *AccountHTTP) refreshFromRequest(c echo.Context) string {
	var req transport.RefreshRequest
	if err := c.Bind(&req); err == nil && req.Refresh != "" {
		return req.Refresh
	}
	if ck, err := c.Cookie(h.Cookies.RefreshName); err == nil {
		return ck.Value
	}
	return ""
}

// Logout always succeeds and always clears the credential cookies.
func (h *AccountHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "logout")

	res := h.Svc.Logout(ctx, h.refreshFromRequest(c))

	c.SetCookie(h.Cookies.Clear(h.Cookies.AccessName))
	c.SetCookie(h.Cookies.Clear(h.Cookies.RefreshName))

	l.Info("user logged out", "revoked", res.Revoked, "already_revoked", res.AlreadyRevoked)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Successfully logged out"})
}

func (h *AccountHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "token.refresh")

	access, exp, err := h.Svc.RefreshAccess(ctx, h.refreshFromRequest(c))
	if err != nil {
		return respondError(c, l, "refresh_error", err)
	}

	c.SetCookie(h.Cookies.Issue(h.Cookies.AccessName, access, time.Until(exp)))
	return c.JSON(http.StatusOK, transport.AccessResponse{Access: access})
}

func (h *AccountHTTP) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.profile")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	user, err := h.Svc.Profile(ctx, actor.UserID)
	if err != nil {
		return respondError(c, l, "get_profile_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

func (h *AccountHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.profile")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req transport.ProfileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_profile_error", "invalid body")
	}

	user, err := h.Svc.UpdateProfile(ctx, actor.UserID, service.ProfilePatch{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return respondError(c, l, "update_profile_error", err)
	}

	l.Info("profile updated")
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}
