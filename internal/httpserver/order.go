package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/solo_shop/internal/logging"
	"github.com/Skotchmaster/solo_shop/internal/models"
	"github.com/Skotchmaster/solo_shop/internal/service"
	"github.com/Skotchmaster/solo_shop/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.orders")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	page, size, offset, limit := paging(c)
	res, err := h.Svc.List(ctx, actor.UserID, limit, offset)
	if err != nil {
		return respondError(c, l, "list_orders_error", err)
	}

	return c.JSON(http.StatusOK, transport.OrderListResponse{
		Total: res.Total,
		Page:  page,
		Size:  size,
		Items: res.Items,
	})
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create.order")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "create_order_error", "invalid body")
	}

	order, err := h.Svc.Place(ctx, actor.UserID, service.PlaceOrderInput{
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		CartItemID:      req.CartItemID,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return respondError(c, l, "create_order_error", err)
	}

	l.Info("order placed", "order_id", order.ID, "quantity", order.Quantity)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.order")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "get_order_error", "invalid id")
	}

	order, err := h.Svc.Get(ctx, actor, id)
	if err != nil {
		return respondError(c, l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.order.status")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "update_order_status_error", "invalid id")
	}

	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_order_status_error", "invalid body")
	}

	order, err := h.Svc.UpdateStatus(ctx, actor, id, models.OrderStatus(req.Status))
	if err != nil {
		return respondError(c, l, "update_order_status_error", err)
	}

	l.Info("order status updated", "order_id", order.ID, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}
