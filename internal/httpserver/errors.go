package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/solo_shop/internal/logging"
	"github.com/Skotchmaster/solo_shop/internal/service"
	"github.com/Skotchmaster/solo_shop/internal/transport"
)

const internalErrorMessage = "internal server error"

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrConflict, http.StatusBadRequest},
	{service.ErrInsufficientStock, http.StatusBadRequest},
	{service.ErrProductUnavailable, http.StatusBadRequest},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrSearchDisabled, http.StatusServiceUnavailable},
}

// detail strips the sentinel text so "validation: x" becomes "x" and
// "order not found: not found" becomes "order not found".
func detail(err, sentinel error) string {
	msg := err.Error()
	s := sentinel.Error()
	if msg == s {
		return msg
	}
	msg = strings.TrimPrefix(msg, s+": ")
	msg = strings.TrimSuffix(msg, ": "+s)
	return msg
}

// classify maps a service error to a status and a client-safe message.
func classify(err error) (int, string) {
	if errors.Is(err, service.ErrInvalidCredentials) {
		return http.StatusUnauthorized, "Invalid credentials"
	}
	for _, m := range errorStatuses {
		if errors.Is(err, m.err) {
			return m.status, detail(err, m.err)
		}
	}
	return http.StatusInternalServerError, internalErrorMessage
}

func respondError(c echo.Context, l *slog.Logger, event string, err error) error {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	return c.JSON(status, transport.ErrorResponse{Error: msg})
}

func badRequest(c echo.Context, l *slog.Logger, event, msg string) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", msg)
	return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: msg})
}

// ErrorHandler renders middleware and routing errors in the same
// {"error": "..."} shape the handlers use.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := internalErrorMessage

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(status)
		}
	} else {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, transport.ErrorResponse{Error: msg})
}
