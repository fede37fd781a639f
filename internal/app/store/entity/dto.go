package entity

import (
	"time"

	"github.com/google/uuid"
)

// === AUTH ===

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=2,max=60"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Время жизни access токена в секундах
}

// === PROFILE ===

type UpdateProfileRequest struct {
	Name        string `json:"name" validate:"omitempty,min=2,max=60"`
	Phone       string `json:"phone" validate:"omitempty,phone"`
	ShipStreet  string `json:"ship_street" validate:"omitempty,max=200"`
	ShipCity    string `json:"ship_city" validate:"omitempty,max=100"`
	ShipZip     string `json:"ship_zip" validate:"omitempty,max=20"`
	ShipCountry string `json:"ship_country" validate:"omitempty,max=100"`
}

// === CATALOG ===

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type UpdateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type CreateProductRequest struct {
	SKU         string   `json:"sku" validate:"required,min=2,max=64"`
	Name        string   `json:"name" validate:"required,min=2,max=200"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	CostPrice   float64  `json:"cost_price" validate:"required,gte=0"`
	Discount    float64  `json:"discount" validate:"gte=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Tags        []string `json:"tags" validate:"omitempty,dive,max=50"`
	Images      []string `json:"images" validate:"required,min=1,dive,url"`
	CategoryIDs []string `json:"category_ids" validate:"required,min=1,dive,uuid"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	CostPrice   *float64 `json:"cost_price" validate:"omitempty,gte=0"`
	Discount    *float64 `json:"discount" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Tags        []string `json:"tags" validate:"omitempty,dive,max=50"`
	Images      []string `json:"images" validate:"omitempty,min=1,dive,url"`
	CategoryIDs []string `json:"category_ids" validate:"omitempty,min=1,dive,uuid"`
	IsActive    *bool    `json:"is_active"`
}

// ProductSort перечисляет поддерживаемые ключи сортировки каталога
type ProductSort string

const (
	SortFeatured  ProductSort = "featured" // Порядок по умолчанию
	SortNewest    ProductSort = "newest"
	SortPriceLow  ProductSort = "price-low"
	SortPriceHigh ProductSort = "price-high"
	SortNameAsc   ProductSort = "name-asc"
	SortNameDesc  ProductSort = "name-desc"
	SortTrending  ProductSort = "trending"
	SortDiscount  ProductSort = "discount"
)

// ProductQuery описывает фильтрацию, сортировку и пагинацию каталога
// Все переданные предикаты комбинируются через AND
type ProductQuery struct {
	Search      string
	Category    string
	Sort        ProductSort
	MinPrice    *float64
	MaxPrice    *float64
	InStockOnly bool
	OnSale      bool
	Trending    bool
	Page        int
	Limit       int
}

// Pagination описывает страницу списка товаров
type Pagination struct {
	Page    int   `json:"page"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
}

type ProductListResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

type CategoryListResponse struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}

// === CART ===

type AddCartItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

type SetCartItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

// CartResponse повторяет форму ответа GET /api/cart
type CartResponse struct {
	Success    bool       `json:"success"`
	Items      []CartItem `json:"items"`
	Total      float64    `json:"total"`
	ItemCount  int        `json:"itemCount"`
	LastSynced time.Time  `json:"lastSynced"`
}

// === RATINGS ===

type RateProductRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"required"`
}

// RatingDistribution содержит количество оценок по звездам 1..5
// Отсутствующие корзины заполняются нулями
type RatingDistribution struct {
	Counts map[int]int64 `json:"counts"`
	Total  int64         `json:"total"`
}

// === COMMENTS ===

type CreateCommentRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Content   string `json:"content" validate:"required"`
}

type UpdateCommentRequest struct {
	CommentID string `json:"commentId" validate:"required"`
	Content   string `json:"content" validate:"required"`
}

// CommentPage описывает страницу комментариев с метаданными пагинации
type CommentPage struct {
	Comments      []Comment `json:"comments"`
	CurrentPage   int       `json:"currentPage"`
	TotalPages    int       `json:"totalPages"`
	TotalComments int64     `json:"totalComments"`
	HasNextPage   bool      `json:"hasNextPage"`
	HasPrevPage   bool      `json:"hasPrevPage"`
}

// CommentQuery описывает пагинацию и сортировку списка комментариев
type CommentQuery struct {
	ProductID string
	Page      int
	Limit     int
	SortBy    string // createdAt | likes
	SortOrder string // asc | desc
}

// === ORDERS ===

type CheckoutRequest struct {
	ShipName    string `json:"ship_name" validate:"required,max=60"`
	ShipPhone   string `json:"ship_phone" validate:"required,phone"`
	ShipStreet  string `json:"ship_street" validate:"required,max=200"`
	ShipCity    string `json:"ship_city" validate:"required,max=100"`
	ShipZip     string `json:"ship_zip" validate:"required,max=20"`
	ShipCountry string `json:"ship_country" validate:"required,max=100"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

// === ОБЩИЕ ОТВЕТЫ ===

type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError описывает одну невалидную field для подсветки формы
// Ошибки валидации собираются все сразу, без fail-fast
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ParseUUIDs преобразует список строк в список UUID
func ParseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
