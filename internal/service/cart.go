package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/solo_shop/internal/events"
	"github.com/Skotchmaster/solo_shop/internal/models"
	"github.com/Skotchmaster/solo_shop/internal/repo"
)

const (
	ActionIncrease = "increase"
	ActionDecrease = "decrease"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func cartNotFound(err error, what string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s not found: %w", what, ErrNotFound)
	case errors.Is(err, repo.ErrQuantityLimit):
		return errQuantityTooLarge()
	}
	return err
}

func errQuantityTooLarge() error {
	return fmt.Errorf("%w: quantity must be at most %d", ErrValidation, repo.MaxLineQuantity)
}

func (s *CartService) List(ctx context.Context, userID uint) ([]models.CartItem, error) {
	return s.Repo.GetCart(ctx, userID)
}

func (s *CartService) Get(ctx context.Context, userID, itemID uint) (*models.CartItem, error) {
	item, err := s.Repo.GetCartItem(ctx, userID, itemID)
	if err != nil {
		return nil, cartNotFound(err, "cart item")
	}
	return item, nil
}

func (s *CartService) Add(ctx context.Context, userID, productID uint, qty int) (*models.CartItem, error) {
	if productID == 0 {
		return nil, fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	if qty > repo.MaxLineQuantity {
		return nil, errQuantityTooLarge()
	}

	item, err := s.Repo.AddToCart(ctx, userID, productID, qty)
	if err != nil {
		return nil, cartNotFound(err, "product")
	}

	publish(ctx, s.Events, events.TopicCart, events.Event{
		Type:   "cart_item_added",
		UserID: userID,
		Data:   map[string]any{"cart_item_id": item.ID, "product_id": productID, "added": qty, "quantity": item.Quantity},
	})
	return item, nil
}

// Adjust increases or decreases a line. Decreasing never drops below 1.
func (s *CartService) Adjust(ctx context.Context, userID, itemID uint, action string, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	if qty > repo.MaxLineQuantity {
		return nil, errQuantityTooLarge()
	}

	var increase bool
	switch action {
	case ActionIncrease:
		increase = true
	case ActionDecrease:
	default:
		return nil, fmt.Errorf("%w: action must be %q or %q", ErrValidation, ActionIncrease, ActionDecrease)
	}

	item, err := s.Repo.AdjustCartItem(ctx, userID, itemID, increase, qty)
	if err != nil {
		return nil, cartNotFound(err, "cart item")
	}

	publish(ctx, s.Events, events.TopicCart, events.Event{
		Type:   "cart_item_updated",
		UserID: userID,
		Data:   map[string]any{"cart_item_id": item.ID, "action": action, "quantity": item.Quantity},
	})
	return item, nil
}

func (s *CartService) Remove(ctx context.Context, userID, itemID uint) error {
	if err := s.Repo.RemoveCartItem(ctx, userID, itemID); err != nil {
		return cartNotFound(err, "cart item")
	}
	publish(ctx, s.Events, events.TopicCart, events.Event{
		Type:   "cart_item_removed",
		UserID: userID,
		Data:   map[string]any{"cart_item_id": itemID},
	})
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uint) (int64, error) {
	n, err := s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		publish(ctx, s.Events, events.TopicCart, events.Event{Type: "cart_cleared", UserID: userID})
	}
	return n, nil
}
