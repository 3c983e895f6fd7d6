package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"      json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	FirstName    string    `gorm:"not null;default:''"       json:"first_name"`
	LastName     string    `gorm:"not null;default:''"       json:"last_name"`
	IsStaff      bool      `gorm:"not null;default:false"    json:"is_staff"`
	CreatedAt    time.Time `gorm:"autoCreateTime"            json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"            json:"updated_at"`
}

// BlacklistedToken marks a refresh token jti as unusable until it expires.
type BlacklistedToken struct {
	ID            uint      `gorm:"primaryKey"          json:"id"`
	JTI           string    `gorm:"uniqueIndex;not null" json:"jti"`
	UserID        uint      `gorm:"index;not null"      json:"user_id"`
	ExpiresAt     time.Time `gorm:"index;not null"      json:"expires_at"`
	BlacklistedAt time.Time `gorm:"autoCreateTime"      json:"blacklisted_at"`
}

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name        string    `gorm:"not null"                      json:"name"`
	Description string    `gorm:"not null;default:''"           json:"description"`
	Price       float64   `gorm:"not null;check:price >= 0"     json:"price"`
	Stock       int       `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Image       string    `gorm:"not null;default:''"           json:"image"`
	IsAvailable bool      `gorm:"not null;default:true"         json:"is_available"`
	CreatedAt   time.Time `gorm:"autoCreateTime"                json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"                json:"updated_at"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                        json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_cart_user_product;not null"        json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_cart_user_product;not null"        json:"product_id"`
	Quantity  int       `gorm:"not null;default:1;check:quantity >= 1"            json:"quantity"`
	Product   Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"  json:"product"`
	CreatedAt time.Time `gorm:"autoCreateTime"                                    json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"                                    json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// TotalPrice is derived, never stored.
func (c CartItem) TotalPrice() float64 {
	return c.Product.Price * float64(c.Quantity)
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is an immutable purchase snapshot. Only Status changes after insert.
type Order struct {
	ID              uint        `gorm:"primaryKey"                       json:"id"`
	UserID          uint        `gorm:"index;not null"                   json:"user_id"`
	ProductID       uint        `gorm:"index;not null"                   json:"product_id"`
	Quantity        int         `gorm:"not null;check:quantity >= 1"     json:"quantity"`
	TotalPrice      float64     `gorm:"not null"                         json:"total_price"`
	ShippingAddress string      `gorm:"not null"                         json:"shipping_address"`
	Status          OrderStatus `gorm:"type:varchar(20);not null;index"  json:"status"`
	Product         Product     `gorm:"foreignKey:ProductID"             json:"product"`
	CreatedAt       time.Time   `gorm:"autoCreateTime"                   json:"created_at"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime"                   json:"updated_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey"                                       json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_user_product;not null"     json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_review_user_product;not null"     json:"product_id"`
	Rating    int       `gorm:"not null;check:rating BETWEEN 1 AND 5"            json:"rating"`
	Comment   string    `gorm:"type:text;not null"                               json:"comment"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"    json:"user"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"                             json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"                                   json:"updated_at"`
}

// All lists every table owned by the service in creation order.
func All() []any {
	return []any{&User{}, &BlacklistedToken{}, &Product{}, &CartItem{}, &Order{}, &Review{}}
}
