package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/solo_shop/internal/logging"
	"github.com/Skotchmaster/solo_shop/internal/service"
	"github.com/Skotchmaster/solo_shop/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func quantityOrDefault(q *int) int {
	if q == nil {
		return 1
	}
	return *q
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	items, err := h.Svc.List(ctx, actor.UserID)
	if err != nil {
		return respondError(c, l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartResponse(items))
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "add_cart_error", "invalid body")
	}

	item, err := h.Svc.Add(ctx, actor.UserID, req.ProductID, quantityOrDefault(req.Quantity))
	if err != nil {
		return respondError(c, l, "add_cart_error", err)
	}

	l.Info("item added to cart", "cart_item_id", item.ID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, transport.NewCartItemResponse(item))
}

func (h *CartHTTP) GetCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart.item")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "get_cart_item_error", "invalid id")
	}

	item, err := h.Svc.Get(ctx, actor.UserID, id)
	if err != nil {
		return respondError(c, l, "get_cart_item_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartItemResponse(item))
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart.quantity")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "update_cart_quantity_error", "invalid id")
	}

	var req transport.CartQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_cart_quantity_error", "invalid body")
	}

	item, err := h.Svc.Adjust(ctx, actor.UserID, id, req.Action, quantityOrDefault(req.Quantity))
	if err != nil {
		return respondError(c, l, "update_cart_quantity_error", err)
	}

	l.Info("cart quantity updated", "cart_item_id", item.ID, "quantity", item.Quantity)
	return c.JSON(http.StatusOK, transport.NewCartItemResponse(item))
}

func (h *CartHTTP) RemoveCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.cart.item")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "remove_cart_item_error", "invalid id")
	}

	if err := h.Svc.Remove(ctx, actor.UserID, id); err != nil {
		return respondError(c, l, "remove_cart_item_error", err)
	}

	l.Info("cart item removed", "cart_item_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "clear.cart")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	n, err := h.Svc.Clear(ctx, actor.UserID)
	if err != nil {
		return respondError(c, l, "clear_cart_error", err)
	}

	l.Info("cart cleared", "removed", n)
	return c.NoContent(http.StatusNoContent)
}
