package service

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/solo_shop/internal/events"
	"github.com/Skotchmaster/solo_shop/internal/logging"
)

var (
	ErrValidation         = errors.New("validation")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrProductUnavailable = errors.New("product is not available")
	ErrSearchDisabled     = errors.New("search is disabled")
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint
	Staff  bool
}

func (a Actor) canAccess(ownerID uint) bool {
	return a.Staff || a.UserID == ownerID
}

const sideEffectTimeout = 5 * time.Second

// publish runs after commit. A failure is logged and never reaches the caller.
func publish(ctx context.Context, p events.Publisher, topic string, ev events.Event) {
	if p == nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := p.Publish(sctx, topic, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}

func sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
}
