package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/solo_shop/internal/cache"
	"github.com/Skotchmaster/solo_shop/internal/config"
	"github.com/Skotchmaster/solo_shop/internal/db"
	"github.com/Skotchmaster/solo_shop/internal/events"
	"github.com/Skotchmaster/solo_shop/internal/repo"
	"github.com/Skotchmaster/solo_shop/internal/search"
	"github.com/Skotchmaster/solo_shop/internal/service"
)

func openStore(ctx context.Context) (*gorm.DB, error) {
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	gdb, err := db.Open(initCtx, db.Options{Driver: cfg.DatabaseDriver, DSN: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("db init: %w", err)
	}
	return gdb, nil
}

func newPublisher() events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka disabled, events are dropped")
		return events.Nop{}
	}
	logger.Info("kafka producer ready", "brokers", cfg.KafkaBrokers)
	return events.NewProducer(cfg.KafkaBrokers...)
}

// newProductCache falls back to no caching when Redis is unset or down.
func newProductCache(ctx context.Context) (cache.ProductCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.Noop{}, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, product cache disabled", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return cache.Noop{}, func() {}
	}
	logger.Info("redis product cache ready", "addr", cfg.RedisAddr)
	return cache.NewRedisCache(client), func() { _ = client.Close() }
}

// newReviewIndex returns nil when search is not configured or unreachable.
func newReviewIndex(ctx context.Context) service.ReviewIndex {
	if cfg.ESURL == "" {
		return nil
	}
	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	es, err := search.NewClient(initCtx, search.ClientConfig{
		URL:      cfg.ESURL,
		User:     cfg.ESUser,
		Password: cfg.ESPassword,
	})
	if err != nil {
		logger.Warn("elasticsearch unavailable, review search disabled", "error", err)
		return nil
	}
	logger.Info("review search ready", "index", cfg.ESReviewIndex)
	return search.NewReviewIndex(es, cfg.ESReviewIndex)
}

func newCatalog(r *repo.GormRepo, c cache.ProductCache) *service.CatalogService {
	return &service.CatalogService{Repo: r, Cache: c, ProductID: cfg.Product.ID}
}

// bootstrapStore creates the schema and the product row. Both steps are
// idempotent.
func bootstrapStore(ctx context.Context, gdb *gorm.DB, catalog *service.CatalogService) error {
	if err := db.Migrate(ctx, gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	created, err := catalog.Seed(ctx, service.SeedInput{
		Name:        cfg.Product.Name,
		Description: cfg.Product.Description,
		Price:       cfg.Product.Price,
		Stock:       cfg.Product.Stock,
	})
	if err != nil {
		return fmt.Errorf("seed product: %w", err)
	}
	logger.Info("bootstrap complete", "product_id", catalog.ProductID, "product_created", created)
	return nil
}
