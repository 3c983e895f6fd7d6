package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/solo_shop/internal/db"
	"github.com/Skotchmaster/solo_shop/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	ctx := context.Background()
	gdb, err := db.Open(ctx, db.Options{Driver: db.DriverSQLite, DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(ctx, gdb))
	return New(gdb)
}

func seedUser(t *testing.T, r *GormRepo, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, r *GormRepo, stock int) *models.Product {
	t.Helper()
	p := &models.Product{ID: 1, Name: "Lamp", Price: 12.5, Stock: stock, IsAvailable: true}
	created, err := r.SeedProduct(context.Background(), p)
	require.NoError(t, err)
	require.True(t, created)
	return p
}

func TestIsDuplicate(t *testing.T) {
	assert.False(t, isDuplicate(nil))
	assert.True(t, isDuplicate(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicate(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isDuplicate(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isDuplicate(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")))
	assert.False(t, isDuplicate(errors.New("boom")))
}

func TestCreateUser_Duplicate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, r, "alice")

	err := r.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, ErrDuplicate)

	err = r.CreateUser(ctx, &models.User{Username: "bob", Email: "alice@example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdateUser_EmailConflict(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, r, "alice")
	bob := seedUser(t, r, "bob")

	_, err := r.UpdateUser(ctx, bob.ID, map[string]any{"email": "alice@example.com"})
	require.ErrorIs(t, err, ErrDuplicate)

	got, err := r.UpdateUser(ctx, bob.ID, map[string]any{"first_name": "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.FirstName)
}

func TestBlacklist(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	bl := r.Blacklist()

	added, err := bl.Add(ctx, "jti-1", 1, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, added)

	added, err = bl.Add(ctx, "jti-1", 1, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, added)

	ok, err := bl.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = bl.Contains(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = bl.Add(ctx, "jti-old", 1, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	n, err := bl.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = bl.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSeedProduct_Idempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedProduct(t, r, 5)

	created, err := r.SeedProduct(ctx, &models.Product{ID: 1, Name: "Other", Price: 1, Stock: 100, IsAvailable: true})
	require.NoError(t, err)
	assert.False(t, created)

	p, err := r.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Name)
	assert.Equal(t, 5, p.Stock)
}

func TestAddToCart_Merges(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, 10)

	first, err := r.AddToCart(ctx, u.ID, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Quantity)

	second, err := r.AddToCart(ctx, u.ID, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)
	assert.Equal(t, "Lamp", second.Product.Name)

	items, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddToCart_ConcurrentFirstAdds(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, 10)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.AddToCart(ctx, u.ID, p.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 8, items[0].Quantity)
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r, "alice")

	_, err := r.AddToCart(context.Background(), u.ID, 99, 1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAdjustCartItem(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	other := seedUser(t, r, "mallory")
	p := seedProduct(t, r, 10)

	item, err := r.AddToCart(ctx, u.ID, p.ID, 2)
	require.NoError(t, err)

	got, err := r.AdjustCartItem(ctx, u.ID, item.ID, true, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	got, err = r.AdjustCartItem(ctx, u.ID, item.ID, false, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)

	got, err = r.AdjustCartItem(ctx, u.ID, item.ID, false, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)

	_, err = r.AdjustCartItem(ctx, other.ID, item.ID, true, 1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartLineQuantityLimit(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, 10)

	item, err := r.AddToCart(ctx, u.ID, p.ID, MaxLineQuantity-1)
	require.NoError(t, err)

	_, err = r.AddToCart(ctx, u.ID, p.ID, 2)
	require.ErrorIs(t, err, ErrQuantityLimit)
	_, err = r.AddToCart(ctx, u.ID, p.ID, MaxLineQuantity+1)
	require.ErrorIs(t, err, ErrQuantityLimit)
	_, err = r.AdjustCartItem(ctx, u.ID, item.ID, true, 2)
	require.ErrorIs(t, err, ErrQuantityLimit)

	got, err := r.GetCartItem(ctx, u.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, MaxLineQuantity-1, got.Quantity)

	got, err = r.AdjustCartItem(ctx, u.ID, item.ID, true, 1)
	require.NoError(t, err)
	assert.Equal(t, MaxLineQuantity, got.Quantity)

	got, err = r.AdjustCartItem(ctx, u.ID, item.ID, false, MaxLineQuantity*2)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
}

func TestRemoveAndClearCart(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	other := seedUser(t, r, "mallory")
	p := seedProduct(t, r, 10)

	item, err := r.AddToCart(ctx, u.ID, p.ID, 2)
	require.NoError(t, err)

	require.ErrorIs(t, r.RemoveCartItem(ctx, other.ID, item.ID), gorm.ErrRecordNotFound)
	require.NoError(t, r.RemoveCartItem(ctx, u.ID, item.ID))
	require.ErrorIs(t, r.RemoveCartItem(ctx, u.ID, item.ID), gorm.ErrRecordNotFound)

	_, err = r.AddToCart(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)
	n, err := r.ClearCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPlaceOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, 3)

	order, err := r.PlaceOrder(ctx, u.ID, p.ID, 2, "1 Main St")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.InDelta(t, 25.0, order.TotalPrice, 0.0001)

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	_, err = r.PlaceOrder(ctx, u.ID, p.ID, 2, "1 Main St")
	require.ErrorIs(t, err, ErrInsufficientStock)

	got, err = r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	_, err = r.PlaceOrder(ctx, u.ID, 42, 1, "1 Main St")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPlaceOrder_ReturnsCommittedStock(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, 10)

	// Another writer takes 2 units between the availability read and the decrement.
	var once sync.Once
	require.NoError(t, r.DB.Callback().Update().Before("gorm:update").Register("test:concurrent_sale", func(d *gorm.DB) {
		if d.Statement.Table != "products" {
			return
		}
		once.Do(func() {
			err := d.Session(&gorm.Session{NewDB: true}).
				Exec("UPDATE products SET stock = stock - 2 WHERE id = ?", p.ID).Error
			require.NoError(t, err)
		})
	}))

	order, err := r.PlaceOrder(ctx, u.ID, p.ID, 3, "1 Main St")
	require.NoError(t, err)
	assert.Equal(t, 5, order.Product.Stock)

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestPlaceOrder_Unavailable(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, 3)

	_, err := r.PatchProduct(ctx, p.ID, map[string]any{"is_available": false})
	require.NoError(t, err)

	_, err = r.PlaceOrder(ctx, u.ID, p.ID, 1, "1 Main St")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestPlaceOrder_ConcurrentLastUnit(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, 1)

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		shortages int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.PlaceOrder(ctx, u.ID, p.ID, 1, "addr")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrInsufficientStock):
				shortages++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, shortages)

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	total, _, err := r.ListOrders(ctx, u.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCheckoutCartItem(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, 5)

	item, err := r.AddToCart(ctx, u.ID, p.ID, 3)
	require.NoError(t, err)

	order, err := r.CheckoutCartItem(ctx, u.ID, item.ID, "addr")
	require.NoError(t, err)
	assert.Equal(t, 3, order.Quantity)

	items, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

func TestCheckoutCartItem_RollsBackOnShortage(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, 2)

	item, err := r.AddToCart(ctx, u.ID, p.ID, 3)
	require.NoError(t, err)

	_, err = r.CheckoutCartItem(ctx, u.ID, item.ID, "addr")
	require.ErrorIs(t, err, ErrInsufficientStock)

	items, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

func TestUpdateOrderStatus(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, 2)

	order, err := r.PlaceOrder(ctx, u.ID, p.ID, 1, "addr")
	require.NoError(t, err)

	got, err := r.UpdateOrderStatus(ctx, order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, got.Status)
	assert.Equal(t, 1, got.Quantity)

	_, err = r.UpdateOrderStatus(ctx, 999, models.OrderStatusShipped)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpsertReview(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, 2)

	first, err := r.UpsertReview(ctx, u.ID, p.ID, 2, "meh")
	require.NoError(t, err)

	second, err := r.UpsertReview(ctx, u.ID, p.ID, 5, "great")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Rating)
	assert.Equal(t, "great", second.Comment)
	assert.Equal(t, "alice", second.User.Username)

	total, list, err := r.ListReviews(ctx, p.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, 5, list[0].Rating)

	_, err = r.UpsertReview(ctx, u.ID, 77, 5, "x")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReviewDetailOps(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	v := seedUser(t, r, "bob")
	p := seedProduct(t, r, 2)

	a, err := r.UpsertReview(ctx, u.ID, p.ID, 4, "good")
	require.NoError(t, err)
	b, err := r.UpsertReview(ctx, v.ID, p.ID, 3, "ok")
	require.NoError(t, err)

	got, err := r.GetReviewsByIDs(ctx, []uint{b.ID, 999, a.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)

	upd, err := r.UpdateReview(ctx, a.ID, map[string]any{"rating": 1})
	require.NoError(t, err)
	assert.Equal(t, 1, upd.Rating)
	assert.Equal(t, "good", upd.Comment)

	require.NoError(t, r.DeleteReview(ctx, a.ID))
	require.ErrorIs(t, r.DeleteReview(ctx, a.ID), gorm.ErrRecordNotFound)
	_, err = r.GetReview(ctx, a.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
