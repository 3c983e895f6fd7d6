package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/Skotchmaster/solo_shop/internal/cache"
	"github.com/Skotchmaster/solo_shop/internal/logging"
	"github.com/Skotchmaster/solo_shop/internal/models"
	"github.com/Skotchmaster/solo_shop/internal/repo"
)

type CatalogService struct {
	Repo      *repo.GormRepo
	Cache     cache.ProductCache
	ProductID uint

	// gen counts invalidations; a read that raced one must not fill the cache.
	mu  sync.Mutex
	gen uint64
}

type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	Image       *string
	IsAvailable *bool
}

func (s *CatalogService) productCache() cache.ProductCache {
	if s.Cache == nil {
		return cache.Noop{}
	}
	return s.Cache
}

// Get returns the shop's product, read through the cache.
func (s *CatalogService) Get(ctx context.Context) (*models.Product, error) {
	l := logging.FromContext(ctx)

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	p, err := s.productCache().Get(ctx, s.ProductID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn("product_cache_get_failed", "error", err)
	}

	p, err = s.Repo.GetProduct(ctx, s.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, err
	}

	if err := s.fill(ctx, gen, p); err != nil {
		l.Warn("product_cache_set_failed", "error", err)
	}
	return p, nil
}

func (s *CatalogService) fill(ctx context.Context, gen uint64, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil
	}
	return s.productCache().Set(ctx, p)
}

func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx)
}

func (s *CatalogService) Update(ctx context.Context, actor Actor, patch ProductPatch) (*models.Product, error) {
	if !actor.Staff {
		return nil, ErrForbidden
	}

	updates := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		updates["name"] = name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		updates["price"] = *patch.Price
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must not be negative", ErrValidation)
		}
		updates["stock"] = *patch.Stock
	}
	if patch.Image != nil {
		updates["image"] = *patch.Image
	}
	if patch.IsAvailable != nil {
		updates["is_available"] = *patch.IsAvailable
	}

	p, err := s.Repo.PatchProduct(ctx, s.ProductID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, err
	}

	s.Invalidate(ctx)
	return p, nil
}

// Invalidate drops the cached snapshot after stock or product changes.
func (s *CatalogService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()

	cctx, cancel := sideEffectContext(ctx)
	defer cancel()
	if err := s.productCache().Delete(cctx, s.ProductID); err != nil {
		logging.FromContext(ctx).Warn("product_cache_delete_failed", "error", err)
	}
}

type SeedInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
}

// Seed creates the product row once. Existing rows are left untouched.
func (s *CatalogService) Seed(ctx context.Context, in SeedInput) (bool, error) {
	if strings.TrimSpace(in.Name) == "" {
		return false, fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if in.Price < 0 || in.Stock < 0 {
		return false, fmt.Errorf("%w: price and stock must not be negative", ErrValidation)
	}
	created, err := s.Repo.SeedProduct(ctx, &models.Product{
		ID:          s.ProductID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsAvailable: true,
	})
	if err != nil {
		return false, err
	}
	if created {
		s.Invalidate(ctx)
	}
	return created, nil
}
