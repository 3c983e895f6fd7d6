package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/solo_shop/internal/cache"
	"github.com/Skotchmaster/solo_shop/internal/models"
)

type mapCache struct {
	items   map[uint]models.Product
	deletes int
	getErr  error
}

func newMapCache() *mapCache {
	return &mapCache{items: map[uint]models.Product{}}
}

func (m *mapCache) Get(_ context.Context, id uint) (*models.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.items[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &p, nil
}

func (m *mapCache) Set(_ context.Context, p *models.Product) error {
	m.items[p.ID] = *p
	return nil
}

func (m *mapCache) Delete(_ context.Context, id uint) error {
	m.deletes++
	delete(m.items, id)
	return nil
}

func TestCatalog_GetBeforeSeed(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.catalog.Get(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_SeedIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.product(t, 10, 5)

	created, err := env.catalog.Seed(ctx, SeedInput{Name: "Other", Price: 1, Stock: 1})
	require.NoError(t, err)
	assert.False(t, created)

	p, err := env.catalog.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Name)
	assert.Equal(t, 5, p.Stock)

	_, err = env.catalog.Seed(ctx, SeedInput{Name: "", Price: 1})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCatalog_InvalidateDuringMissSkipsFill(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := newMapCache()
	env.catalog.Cache = c
	env.product(t, 10, 5)

	// An order commits and invalidates after Get has read the row but before it fills the cache.
	fired := false
	require.NoError(t, env.repo.DB.Callback().Query().After("gorm:query").Register("test:order_commit", func(d *gorm.DB) {
		if fired || d.Statement.Table != "products" {
			return
		}
		fired = true
		require.NoError(t, env.repo.DB.Exec("UPDATE products SET stock = 3 WHERE id = 1").Error)
		env.catalog.Invalidate(ctx)
	}))

	p, err := env.catalog.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)
	assert.NotContains(t, c.items, uint(1))

	p, err = env.catalog.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, 3, c.items[1].Stock)
}

func TestCatalog_ReadThroughCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := newMapCache()
	env.catalog.Cache = c
	env.product(t, 10, 5)

	_, err := env.catalog.Get(ctx)
	require.NoError(t, err)
	require.Contains(t, c.items, uint(1))

	u := env.user(t, "alice")
	_, err = env.orders.Place(ctx, u.ID, PlaceOrderInput{ProductID: 1, Quantity: 2, ShippingAddress: "addr"})
	require.NoError(t, err)
	assert.NotContains(t, c.items, uint(1))

	p, err := env.catalog.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestCatalog_CacheErrorFallsBackToStore(t *testing.T) {
	env := newTestEnv(t)
	c := newMapCache()
	c.getErr = errors.New("redis down")
	env.catalog.Cache = c
	env.product(t, 10, 5)

	p, err := env.catalog.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Name)
}

func TestCatalog_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := newMapCache()
	env.catalog.Cache = c
	env.product(t, 10, 5)
	admin := env.staff(t, "admin")
	staff := Actor{UserID: admin.ID, Staff: true}

	price := 12.5
	_, err := env.catalog.Update(ctx, Actor{UserID: admin.ID}, ProductPatch{Price: &price})
	require.ErrorIs(t, err, ErrForbidden)

	neg := -1.0
	_, err = env.catalog.Update(ctx, staff, ProductPatch{Price: &neg})
	require.ErrorIs(t, err, ErrValidation)

	negStock := -3
	_, err = env.catalog.Update(ctx, staff, ProductPatch{Stock: &negStock})
	require.ErrorIs(t, err, ErrValidation)

	before := c.deletes
	stock := 40
	p, err := env.catalog.Update(ctx, staff, ProductPatch{Price: &price, Stock: &stock})
	require.NoError(t, err)
	assert.InDelta(t, 12.5, p.Price, 0.0001)
	assert.Equal(t, 40, p.Stock)
	assert.Greater(t, c.deletes, before)

	list, err := env.catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
