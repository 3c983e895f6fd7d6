package cache

import (
	"context"
	"errors"

	"github.com/Skotchmaster/solo_shop/internal/models"
)

type ProductCache interface {
	Get(ctx context.Context, id uint) (*models.Product, error)
	Set(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uint) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop always misses.
type Noop struct{}

func (Noop) Get(context.Context, uint) (*models.Product, error) { return nil, ErrCacheMiss }
func (Noop) Set(context.Context, *models.Product) error         { return nil }
func (Noop) Delete(context.Context, uint) error                 { return nil }
