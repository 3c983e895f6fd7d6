package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/solo_shop/internal/models"
)

type fakeIndex struct {
	indexed map[uint]int
	deleted []uint
	hits    []uint
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[uint]int{}}
}

func (f *fakeIndex) Index(_ context.Context, r *models.Review) error {
	if f.err != nil {
		return f.err
	}
	f.indexed[r.ID] = r.Rating
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id uint) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []uint, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.hits)), f.hits, nil
}

func TestReview_SubmitTwiceKeepsOneRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	env.product(t, 10, 5)
	idx := newFakeIndex()
	env.reviews.Index = idx

	first, err := env.reviews.Submit(ctx, u.ID, 1, 2, "meh")
	require.NoError(t, err)
	second, err := env.reviews.Submit(ctx, u.ID, 1, 5, "  love it ")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Rating)
	assert.Equal(t, "love it", second.Comment)
	assert.Equal(t, 5, idx.indexed[second.ID])

	page, err := env.reviews.List(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 5, page.Items[0].Rating)
}

func TestReview_SubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	env.product(t, 10, 5)

	tests := []struct {
		name      string
		productID uint
		rating    int
		comment   string
		want      error
	}{
		{"rating too low", 1, 0, "x", ErrValidation},
		{"rating too high", 1, 6, "x", ErrValidation},
		{"empty comment", 1, 3, "  ", ErrValidation},
		{"missing product id", 0, 3, "x", ErrValidation},
		{"unknown product", 9, 3, "x", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.reviews.Submit(ctx, u.ID, tt.productID, tt.rating, tt.comment)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReview_IndexFailureDoesNotFailSubmit(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "alice")
	env.product(t, 10, 5)
	idx := newFakeIndex()
	idx.err = errors.New("es down")
	env.reviews.Index = idx

	_, err := env.reviews.Submit(context.Background(), u.ID, 1, 4, "fine")
	require.NoError(t, err)
}

func TestReview_DetailAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "alice")
	other := env.user(t, "mallory")
	admin := env.staff(t, "admin")
	env.product(t, 10, 5)
	idx := newFakeIndex()
	env.reviews.Index = idx

	r, err := env.reviews.Submit(ctx, owner.ID, 1, 4, "good")
	require.NoError(t, err)

	_, err = env.reviews.Get(ctx, Actor{UserID: other.ID}, r.ID)
	require.ErrorIs(t, err, ErrNotFound)

	rating := 1
	_, err = env.reviews.Update(ctx, Actor{UserID: other.ID}, r.ID, ReviewPatch{Rating: &rating})
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, env.reviews.Delete(ctx, Actor{UserID: other.ID}, r.ID), ErrNotFound)

	got, err := env.reviews.Get(ctx, Actor{UserID: owner.ID}, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.User.Username)

	bad := 9
	_, err = env.reviews.Update(ctx, Actor{UserID: owner.ID}, r.ID, ReviewPatch{Rating: &bad})
	require.ErrorIs(t, err, ErrValidation)

	upd, err := env.reviews.Update(ctx, Actor{UserID: owner.ID}, r.ID, ReviewPatch{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 1, upd.Rating)
	assert.Equal(t, 1, idx.indexed[r.ID])

	require.NoError(t, env.reviews.Delete(ctx, Actor{UserID: admin.ID, Staff: true}, r.ID))
	assert.Equal(t, []uint{r.ID}, idx.deleted)

	_, err = env.reviews.Get(ctx, Actor{UserID: owner.ID}, r.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReview_Search(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")
	env.product(t, 10, 5)

	_, err := env.reviews.Search(ctx, "good", 10, 0)
	require.ErrorIs(t, err, ErrSearchDisabled)

	idx := newFakeIndex()
	env.reviews.Index = idx

	ra, err := env.reviews.Submit(ctx, a.ID, 1, 4, "good")
	require.NoError(t, err)
	rb, err := env.reviews.Submit(ctx, b.ID, 1, 5, "very good")
	require.NoError(t, err)

	idx.hits = []uint{rb.ID, ra.ID}
	page, err := env.reviews.Search(ctx, "good", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, rb.ID, page.Items[0].ID)

	page, err = env.reviews.Search(ctx, "   ", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
