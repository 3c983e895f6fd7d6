package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/solo_shop/internal/events"
	"github.com/Skotchmaster/solo_shop/internal/models"
	"github.com/Skotchmaster/solo_shop/internal/repo"
)

type OrderService struct {
	Repo    *repo.GormRepo
	Catalog *CatalogService
	Events  events.Publisher
}

type PlaceOrderInput struct {
	ProductID       uint
	Quantity        int
	CartItemID      uint
	ShippingAddress string
}

type OrderPage struct {
	Total int64
	Items []models.Order
}

// statusTransitions lists the states each status may move to.
var statusTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
}

func canTransition(from, to models.OrderStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func mapOrderErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: product or cart item not found", ErrNotFound)
	case errors.Is(err, repo.ErrInsufficientStock):
		return fmt.Errorf("%w: not enough items in stock", ErrInsufficientStock)
	case errors.Is(err, repo.ErrUnavailable):
		return ErrProductUnavailable
	}
	return err
}

// Place creates an order from either a product and quantity or a cart line.
func (s *OrderService) Place(ctx context.Context, userID uint, in PlaceOrderInput) (*models.Order, error) {
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: shipping_address is required", ErrValidation)
	}

	var (
		order *models.Order
		err   error
	)
	switch {
	case in.CartItemID != 0:
		if in.ProductID != 0 {
			return nil, fmt.Errorf("%w: give either cart_item_id or product_id", ErrValidation)
		}
		order, err = s.Repo.CheckoutCartItem(ctx, userID, in.CartItemID, address)
	case in.ProductID != 0:
		if in.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
		if in.Quantity > repo.MaxLineQuantity {
			return nil, errQuantityTooLarge()
		}
		order, err = s.Repo.PlaceOrder(ctx, userID, in.ProductID, in.Quantity, address)
	default:
		return nil, fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if err != nil {
		return nil, mapOrderErr(err)
	}

	if s.Catalog != nil {
		s.Catalog.Invalidate(ctx)
	}
	publish(ctx, s.Events, events.TopicOrder, events.Event{
		Type:   "order_placed",
		UserID: userID,
		Data: map[string]any{
			"order_id":    order.ID,
			"product_id":  order.ProductID,
			"quantity":    order.Quantity,
			"total_price": order.TotalPrice,
			"from_cart":   in.CartItemID != 0,
		},
	})
	return order, nil
}

func (s *OrderService) List(ctx context.Context, userID uint, limit, offset int) (*OrderPage, error) {
	total, items, err := s.Repo.ListOrders(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Total: total, Items: items}, nil
}

// Get hides orders of other users behind NotFound unless the actor is staff.
func (s *OrderService) Get(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order not found: %w", ErrNotFound)
		}
		return nil, err
	}
	if !actor.canAccess(order.UserID) {
		return nil, fmt.Errorf("order not found: %w", ErrNotFound)
	}
	return order, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uint, status models.OrderStatus) (*models.Order, error) {
	if !actor.Staff {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	current, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order not found: %w", ErrNotFound)
		}
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}
	if !canTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", ErrValidation, current.Status, status)
	}

	order, err := s.Repo.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order not found: %w", ErrNotFound)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrder, events.Event{
		Type:   "order_status_changed",
		UserID: order.UserID,
		Data:   map[string]any{"order_id": order.ID, "from": current.Status, "to": status},
	})
	return order, nil
}
