package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/solo_shop/internal/logging"
	"github.com/Skotchmaster/solo_shop/internal/service"
	"github.com/Skotchmaster/solo_shop/internal/transport"
)

type ProductHTTP struct {
	Svc *service.CatalogService
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.product")

	p, err := h.Svc.Get(ctx)
	if err != nil {
		return respondError(c, l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.products")

	items, err := h.Svc.List(ctx)
	if err != nil {
		return respondError(c, l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProductHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "patch.product")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "patch_product_error", "invalid body")
	}

	p, err := h.Svc.Update(ctx, actor, service.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Image:       req.Image,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return respondError(c, l, "patch_product_error", err)
	}

	l.Info("product updated", "product_id", p.ID)
	return c.JSON(http.StatusOK, p)
}
