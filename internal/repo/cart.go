package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/solo_shop/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Preload("Product").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCartItem(ctx context.Context, userID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).Preload("Product").
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// AddToCart merges into an existing (user, product) line in one statement so
// two concurrent first adds cannot both insert.
func (r *GormRepo) AddToCart(ctx context.Context, userID, productID uint, qty int) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Product{}, productID).Error; err != nil {
			return err
		}

		if qty > MaxLineQuantity {
			return ErrQuantityLimit
		}
		row := models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
		res := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("cart_items.quantity + excluded.quantity <= ?", MaxLineQuantity),
			}},
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrQuantityLimit
		}

		return tx.Preload("Product").
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AdjustCartItem changes quantity by delta with a single owner-scoped UPDATE.
// Decrements floor at 1; removal is a separate, explicit operation. Increases
// past MaxLineQuantity fail with ErrQuantityLimit and leave the line as is.
func (r *GormRepo) AdjustCartItem(ctx context.Context, userID, itemID uint, increase bool, delta int) (*models.CartItem, error) {
	if delta > MaxLineQuantity {
		if increase {
			return nil, ErrQuantityLimit
		}
		delta = MaxLineQuantity
	}
	expr := gorm.Expr("quantity + ?", delta)
	if !increase {
		expr = gorm.Expr("CASE WHEN quantity - ? < 1 THEN 1 ELSE quantity - ? END", delta, delta)
	}

	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.CartItem{}).Where("id = ? AND user_id = ?", itemID, userID)
		if increase {
			q = q.Where("quantity + ? <= ?", delta, MaxLineQuantity)
		}
		res := q.Updates(map[string]any{"quantity": expr})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.CartItem{}).
				Where("id = ? AND user_id = ?", itemID, userID).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return ErrQuantityLimit
			}
			return gorm.ErrRecordNotFound
		}
		return tx.Preload("Product").First(&item, itemID).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) RemoveCartItem(ctx context.Context, userID, itemID uint) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
