package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/solo_shop/internal/db"
	"github.com/Skotchmaster/solo_shop/internal/events"
	"github.com/Skotchmaster/solo_shop/internal/hash"
	"github.com/Skotchmaster/solo_shop/internal/models"
	"github.com/Skotchmaster/solo_shop/internal/repo"
	"github.com/Skotchmaster/solo_shop/internal/tokens"
)

func TestMain(m *testing.M) {
	hash.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testEnv struct {
	repo     *repo.GormRepo
	tokens   *tokens.Service
	events   *events.Recorder
	accounts *AccountService
	catalog  *CatalogService
	carts    *CartService
	orders   *OrderService
	reviews  *ReviewService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	gdb, err := db.Open(ctx, db.Options{Driver: db.DriverSQLite, DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(ctx, gdb))

	r := repo.New(gdb)
	rec := &events.Recorder{}
	ts := tokens.NewService([]byte("access"), []byte("refresh"), 5*time.Minute, 24*time.Hour, r.Blacklist())
	catalog := &CatalogService{Repo: r, ProductID: 1}

	return &testEnv{
		repo:     r,
		tokens:   ts,
		events:   rec,
		accounts: &AccountService{Repo: r, Tokens: ts, Events: rec},
		catalog:  catalog,
		carts:    &CartService{Repo: r, Events: rec},
		orders:   &OrderService{Repo: r, Catalog: catalog, Events: rec},
		reviews:  &ReviewService{Repo: r, Events: rec},
	}
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	res, err := e.accounts.Register(context.Background(), RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return res.User
}

func (e *testEnv) staff(t *testing.T, name string) *models.User {
	t.Helper()
	u := e.user(t, name)
	require.NoError(t, e.repo.DB.Model(u).Update("is_staff", true).Error)
	u.IsStaff = true
	return u
}

func (e *testEnv) product(t *testing.T, price float64, stock int) {
	t.Helper()
	created, err := e.catalog.Seed(context.Background(), SeedInput{Name: "Lamp", Price: price, Stock: stock})
	require.NoError(t, err)
	require.True(t, created)
}
