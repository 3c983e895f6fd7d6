package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/solo_shop/internal/config"
	"github.com/Skotchmaster/solo_shop/internal/db"
	"github.com/Skotchmaster/solo_shop/internal/httpserver"
	"github.com/Skotchmaster/solo_shop/internal/middleware/auth"
	"github.com/Skotchmaster/solo_shop/internal/middleware/csrf"
	"github.com/Skotchmaster/solo_shop/internal/repo"
	"github.com/Skotchmaster/solo_shop/internal/service"
	"github.com/Skotchmaster/solo_shop/internal/tokens"
)

var serveBootstrap bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API on SERVER_PORT until SIGINT or SIGTERM.

Kafka, Redis and Elasticsearch are optional; each is switched off when its
address is unset or it cannot be reached at startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveBootstrap, "bootstrap", false, "Migrate the schema and seed the product before serving")
}

func runServe(ctx context.Context) error {
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	gdb, err := openStore(ctx)
	if err != nil {
		return err
	}

	publisher := newPublisher()
	productCache, closeCache := newProductCache(ctx)
	reviewIndex := newReviewIndex(ctx)

	r := repo.New(gdb)
	catalog := newCatalog(r, productCache)

	if serveBootstrap {
		bctx, cancel := context.WithTimeout(ctx, time.Minute)
		err := bootstrapStore(bctx, gdb, catalog)
		cancel()
		if err != nil {
			return err
		}
	}

	tokenSvc := tokens.NewService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, r.Blacklist())
	cookies := auth.CookieConfig{
		AccessName:  cfg.Cookies.AccessName,
		RefreshName: cfg.Cookies.RefreshName,
		Path:        cfg.Cookies.Path,
		Domain:      cfg.Cookies.Domain,
		Secure:      cfg.Cookies.Secure,
		HTTPOnly:    cfg.Cookies.HTTPOnly,
		SameSite:    cfg.Cookies.SameSite,
	}

	var csrfCfg *csrf.Config
	if cfg.CSRFEnabled {
		c := csrf.DefaultConfig()
		c.Domain = cfg.Cookies.Domain
		c.Secure = cfg.Cookies.Secure
		c.SameSite = cfg.Cookies.SameSite
		csrfCfg = &c
	}

	e := httpserver.NewEcho()
	httpserver.Register(e, &httpserver.Deps{
		DB:      gdb,
		Logger:  logger,
		Gateway: auth.NewGateway(cookies, tokenSvc),
		CSRF:    csrfCfg,

		AccountHandler: &httpserver.AccountHTTP{
			Svc:     &service.AccountService{Repo: r, Tokens: tokenSvc, Events: publisher},
			Cookies: cookies,
		},
		ProductHandler: &httpserver.ProductHTTP{Svc: catalog},
		CartHandler:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Events: publisher}},
		OrderHandler:   &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Catalog: catalog, Events: publisher}},
		ReviewHandler:  &httpserver.ReviewHTTP{Svc: &service.ReviewService{Repo: r, Index: reviewIndex, Events: publisher}},
	})

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	go func() {
		logger.Info("starting http server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	go func() {
		<-quit
		logger.Warn("force exit")
		os.Exit(1)
	}()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}
	closeCache()
	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
