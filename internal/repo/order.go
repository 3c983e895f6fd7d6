package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/solo_shop/internal/models"
)

func createOrder(tx *gorm.DB, userID, productID uint, qty int, address string) (*models.Order, error) {
	product, err := reserveStock(tx, productID, qty)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		UserID:          userID,
		ProductID:       productID,
		Quantity:        qty,
		TotalPrice:      product.Price * float64(qty),
		ShippingAddress: address,
		Status:          models.OrderStatusPending,
	}
	if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
		return nil, err
	}
	order.Product = *product
	return &order, nil
}

// PlaceOrder decrements stock and records the order atomically.
func (r *GormRepo) PlaceOrder(ctx context.Context, userID, productID uint, qty int, address string) (*models.Order, error) {
	var order *models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := createOrder(tx, userID, productID, qty, address)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CheckoutCartItem orders the full quantity of a cart line and removes the
// line in the same transaction.
func (r *GormRepo) CheckoutCartItem(ctx context.Context, userID, itemID uint, address string) (*models.Order, error) {
	var order *models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.CartItem
		if err := tx.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
			return err
		}

		o, err := createOrder(tx, userID, item.ProductID, item.Quantity, address)
		if err != nil {
			return err
		}

		res := tx.Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uint, limit, offset int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := r.DB.WithContext(ctx).Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Product").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Preload("Product").First(&order, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
