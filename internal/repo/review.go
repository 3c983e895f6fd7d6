package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/solo_shop/internal/models"
)

// UpsertReview keeps one review per (user, product); a resubmission
// overwrites rating and comment.
func (r *GormRepo) UpsertReview(ctx context.Context, userID, productID uint, rating int, comment string) (*models.Review, error) {
	var review models.Review
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Product{}, productID).Error; err != nil {
			return err
		}

		row := models.Review{UserID: userID, ProductID: productID, Rating: rating, Comment: comment}
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}

		return tx.Preload("User").
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&review).Error
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *GormRepo) ListReviews(ctx context.Context, productID uint, limit, offset int) (int64, []models.Review, error) {
	q := r.DB.WithContext(ctx).Model(&models.Review{})
	if productID != 0 {
		q = q.Where("product_id = ?", productID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	list := r.DB.WithContext(ctx).Preload("User")
	if productID != 0 {
		list = list.Where("product_id = ?", productID)
	}
	var reviews []models.Review
	if err := list.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&reviews).Error; err != nil {
		return 0, nil, err
	}
	return total, reviews, nil
}

func (r *GormRepo) GetReview(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.DB.WithContext(ctx).Preload("User").First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// GetReviewsByIDs keeps the order of ids, skipping rows that no longer exist.
func (r *GormRepo) GetReviewsByIDs(ctx context.Context, ids []uint) ([]models.Review, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Review
	if err := r.DB.WithContext(ctx).Preload("User").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Review, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	out := make([]models.Review, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *GormRepo) UpdateReview(ctx context.Context, id uint, updates map[string]any) (*models.Review, error) {
	var review models.Review
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			res := tx.Model(&models.Review{}).Where("id = ?", id).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return tx.Preload("User").First(&review, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *GormRepo) DeleteReview(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Review{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
