package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/solo_shop/internal/events"
	"github.com/Skotchmaster/solo_shop/internal/logging"
	"github.com/Skotchmaster/solo_shop/internal/models"
	"github.com/Skotchmaster/solo_shop/internal/repo"
)

// ReviewIndex is the optional full-text mirror of the review table.
type ReviewIndex interface {
	Index(ctx context.Context, r *models.Review) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type ReviewService struct {
	Repo   *repo.GormRepo
	Index  ReviewIndex
	Events events.Publisher
}

type ReviewPatch struct {
	Rating  *int
	Comment *string
}

type ReviewPage struct {
	Total int64
	Items []models.Review
}

func validateRating(r int) error {
	if r < 1 || r > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	return nil
}

func validateComment(c string) (string, error) {
	c = strings.TrimSpace(c)
	if c == "" {
		return "", fmt.Errorf("%w: comment is required", ErrValidation)
	}
	return c, nil
}

func reviewNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("review not found: %w", ErrNotFound)
	}
	return err
}

// Submit creates the caller's review of a product or overwrites the existing one.
func (s *ReviewService) Submit(ctx context.Context, userID, productID uint, rating int, comment string) (*models.Review, error) {
	if productID == 0 {
		return nil, fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	comment, err := validateComment(comment)
	if err != nil {
		return nil, err
	}

	review, err := s.Repo.UpsertReview(ctx, userID, productID, rating, comment)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, err
	}

	s.reindex(ctx, review)
	publish(ctx, s.Events, events.TopicReview, events.Event{
		Type:   "review_submitted",
		UserID: userID,
		Data:   map[string]any{"review_id": review.ID, "product_id": productID, "rating": rating},
	})
	return review, nil
}

func (s *ReviewService) List(ctx context.Context, productID uint, limit, offset int) (*ReviewPage, error) {
	total, items, err := s.Repo.ListReviews(ctx, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &ReviewPage{Total: total, Items: items}, nil
}

func (s *ReviewService) Get(ctx context.Context, actor Actor, id uint) (*models.Review, error) {
	review, err := s.Repo.GetReview(ctx, id)
	if err != nil {
		return nil, reviewNotFound(err)
	}
	if !actor.canAccess(review.UserID) {
		return nil, fmt.Errorf("review not found: %w", ErrNotFound)
	}
	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, actor Actor, id uint, patch ReviewPatch) (*models.Review, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Rating != nil {
		if err := validateRating(*patch.Rating); err != nil {
			return nil, err
		}
		updates["rating"] = *patch.Rating
	}
	if patch.Comment != nil {
		c, err := validateComment(*patch.Comment)
		if err != nil {
			return nil, err
		}
		updates["comment"] = c
	}

	review, err := s.Repo.UpdateReview(ctx, id, updates)
	if err != nil {
		return nil, reviewNotFound(err)
	}
	s.reindex(ctx, review)
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.Repo.DeleteReview(ctx, id); err != nil {
		return reviewNotFound(err)
	}

	if s.Index != nil {
		ictx, cancel := sideEffectContext(ctx)
		defer cancel()
		if err := s.Index.Delete(ictx, id); err != nil {
			logging.FromContext(ctx).Warn("review_unindex_failed", "review_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicReview, events.Event{
		Type:   "review_deleted",
		UserID: actor.UserID,
		Data:   map[string]any{"review_id": id},
	})
	return nil
}

// Search queries the index and loads the matching rows from the store.
func (s *ReviewService) Search(ctx context.Context, query string, limit, offset int) (*ReviewPage, error) {
	if s.Index == nil {
		return nil, ErrSearchDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return &ReviewPage{Items: []models.Review{}}, nil
	}

	total, ids, err := s.Index.Search(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.GetReviewsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Review{}
	}
	return &ReviewPage{Total: total, Items: items}, nil
}

func (s *ReviewService) reindex(ctx context.Context, r *models.Review) {
	if s.Index == nil {
		return
	}
	ictx, cancel := sideEffectContext(ctx)
	defer cancel()
	if err := s.Index.Index(ictx, r); err != nil {
		logging.FromContext(ctx).Warn("review_index_failed", "review_id", r.ID, "error", err)
	}
}
