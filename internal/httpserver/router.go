package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/solo_shop/internal/db"
	"github.com/Skotchmaster/solo_shop/internal/middleware/auth"
	"github.com/Skotchmaster/solo_shop/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/solo_shop/internal/middleware/logging"
)

type Deps struct {
	DB      *gorm.DB
	Logger  *slog.Logger
	Gateway *auth.Gateway
	// CSRF is nil when the double-submit check is disabled.
	CSRF *csrf.Config

	AccountHandler *AccountHTTP
	ProductHandler *ProductHTTP
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	ReviewHandler  *ReviewHTTP
}

// NewEcho returns an echo instance with the server timeouts and the JSON
// error renderer used by every route.
func NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(d.Logger))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx, d.DB); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api", d.Gateway.Authenticate)
	if d.CSRF != nil {
		cfg := *d.CSRF
		cfg.SkipPaths = append(cfg.SkipPaths, "/api/register", "/api/login", "/api/logout")
		api.Use(csrf.Middleware(cfg))
	}

	api.POST("/register", d.AccountHandler.Register)
	api.POST("/login", d.AccountHandler.Login)
	api.POST("/logout", d.AccountHandler.Logout)
	api.POST("/token/refresh", d.AccountHandler.Refresh)
	api.GET("/profile", d.AccountHandler.GetProfile, auth.RequireAuth)
	api.PUT("/profile", d.AccountHandler.UpdateProfile, auth.RequireAuth)

	api.GET("/product", d.ProductHandler.GetProduct)
	api.GET("/products", d.ProductHandler.ListProducts)
	api.PATCH("/product", d.ProductHandler.PatchProduct, auth.RequireStaff)

	cart := api.Group("/cart", auth.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.GET("/:id", d.CartHandler.GetCartItem)
	cart.PATCH("/:id/quantity", d.CartHandler.UpdateQuantity)
	cart.DELETE("/:id", d.CartHandler.RemoveCartItem)

	orders := api.Group("/orders", auth.RequireAuth)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PATCH("/:id/status", d.OrderHandler.UpdateStatus, auth.RequireStaff)

	reviews := api.Group("/reviews")
	reviews.GET("", d.ReviewHandler.ListReviews)
	reviews.GET("/search", d.ReviewHandler.SearchReviews)
	reviews.POST("", d.ReviewHandler.CreateReview, auth.RequireAuth)
	reviews.GET("/:id", d.ReviewHandler.GetReview, auth.RequireAuth)
	reviews.PUT("/:id", d.ReviewHandler.UpdateReview, auth.RequireAuth)
	reviews.DELETE("/:id", d.ReviewHandler.DeleteReview, auth.RequireAuth)
}
