package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/solo_shop/internal/logging"
	"github.com/Skotchmaster/solo_shop/internal/service"
	"github.com/Skotchmaster/solo_shop/internal/transport"
	"github.com/Skotchmaster/solo_shop/internal/util"
)

type ReviewHTTP struct {
	Svc *service.ReviewService
}

func (h *ReviewHTTP) ListReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.reviews")

	var productID uint
	if raw := c.QueryParam("product_id"); raw != "" {
		id, ok := util.ParseID(raw)
		if !ok {
			return badRequest(c, l, "list_reviews_error", "invalid product_id")
		}
		productID = id
	}

	page, size, offset, limit := paging(c)
	res, err := h.Svc.List(ctx, productID, limit, offset)
	if err != nil {
		return respondError(c, l, "list_reviews_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewReviewList(res.Total, page, size, res.Items))
}

func (h *ReviewHTTP) SearchReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search.reviews")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return badRequest(c, l, "search_reviews_error", "q is required")
	}

	page, size, offset, limit := paging(c)
	res, err := h.Svc.Search(ctx, q, limit, offset)
	if err != nil {
		return respondError(c, l, "search_reviews_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewReviewList(res.Total, page, size, res.Items))
}

func (h *ReviewHTTP) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create.review")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req transport.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "create_review_error", "invalid body")
	}

	r, err := h.Svc.Submit(ctx, actor.UserID, req.ProductID, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, l, "create_review_error", err)
	}

	l.Info("review submitted", "review_id", r.ID, "rating", r.Rating)
	return c.JSON(http.StatusCreated, transport.NewReviewResponse(r))
}

func (h *ReviewHTTP) GetReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.review")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "get_review_error", "invalid id")
	}

	r, err := h.Svc.Get(ctx, actor, id)
	if err != nil {
		return respondError(c, l, "get_review_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewReviewResponse(r))
}

func (h *ReviewHTTP) UpdateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.review")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "update_review_error", "invalid id")
	}

	var req transport.UpdateReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_review_error", "invalid body")
	}

	r, err := h.Svc.Update(ctx, actor, id, service.ReviewPatch{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		return respondError(c, l, "update_review_error", err)
	}

	l.Info("review updated", "review_id", r.ID)
	return c.JSON(http.StatusOK, transport.NewReviewResponse(r))
}

func (h *ReviewHTTP) DeleteReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete.review")

	actor, ok := actorFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, l, "delete_review_error", "invalid id")
	}

	if err := h.Svc.Delete(ctx, actor, id); err != nil {
		return respondError(c, l, "delete_review_error", err)
	}

	l.Info("review deleted", "review_id", id)
	return c.NoContent(http.StatusNoContent)
}
