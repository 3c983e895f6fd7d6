package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/solo_shop/internal/models"
)

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) PatchProduct(ctx context.Context, id uint, updates map[string]any) (*models.Product, error) {
	var prod models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&prod, id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&prod).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&prod, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

// SeedProduct inserts the product unless a row with its id already exists.
func (r *GormRepo) SeedProduct(ctx context.Context, p *models.Product) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// reserveStock runs inside the caller's transaction. The WHERE clause makes
// the check and the decrement one statement.
func reserveStock(tx *gorm.DB, productID uint, qty int) (*models.Product, error) {
	var product models.Product
	if err := tx.First(&product, productID).Error; err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		return nil, ErrUnavailable
	}
	if product.Stock < qty {
		return nil, ErrInsufficientStock
	}

	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientStock
	}
	if err := tx.First(&product, productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
