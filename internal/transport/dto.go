package transport

import (
	"time"

	"github.com/Skotchmaster/solo_shop/internal/models"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type ProfileUpdateRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsStaff   bool   `json:"is_staff"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsStaff:   u.IsStaff,
	}
}

type AuthResponse struct {
	User    UserResponse `json:"user"`
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	Message string       `json:"message"`
}

type AccessResponse struct {
	Access string `json:"access"`
}

type PatchProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Image       *string  `json:"image"`
	IsAvailable *bool    `json:"is_available"`
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  *int `json:"quantity"`
}

type CartQuantityRequest struct {
	Action   string `json:"action"`
	Quantity *int   `json:"quantity"`
}

type CartItemResponse struct {
	ID         uint           `json:"id"`
	Product    models.Product `json:"product"`
	Quantity   int            `json:"quantity"`
	TotalPrice float64        `json:"total_price"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func NewCartItemResponse(it *models.CartItem) CartItemResponse {
	return CartItemResponse{
		ID:         it.ID,
		Product:    it.Product,
		Quantity:   it.Quantity,
		TotalPrice: it.TotalPrice(),
		CreatedAt:  it.CreatedAt,
		UpdatedAt:  it.UpdatedAt,
	}
}

func NewCartResponse(items []models.CartItem) []CartItemResponse {
	out := make([]CartItemResponse, 0, len(items))
	for i := range items {
		out = append(out, NewCartItemResponse(&items[i]))
	}
	return out
}

type CreateOrderRequest struct {
	ProductID       uint   `json:"product_id"`
	Quantity        int    `json:"quantity"`
	CartItemID      uint   `json:"cart_item_id"`
	ShippingAddress string `json:"shipping_address"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type OrderListResponse struct {
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Items []models.Order `json:"items"`
}

type CreateReviewRequest struct {
	ProductID uint   `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type ReviewResponse struct {
	ID        uint         `json:"id"`
	User      UserResponse `json:"user"`
	ProductID uint         `json:"product_id"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func NewReviewResponse(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		User:      NewUserResponse(&r.User),
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type ReviewListResponse struct {
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
	Items []ReviewResponse `json:"items"`
}

func NewReviewList(total int64, page, size int, items []models.Review) ReviewListResponse {
	out := make([]ReviewResponse, 0, len(items))
	for i := range items {
		out = append(out, NewReviewResponse(&items[i]))
	}
	return ReviewListResponse{Total: total, Page: page, Size: size, Items: out}
}
