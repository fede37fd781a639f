package service

import "errors"

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrCartItemNotFound = errors.New("cart item not found")

	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 99")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidRating     = errors.New("rating must be an integer between 1 and 5")
	ErrRatingRequired    = errors.New("rating required before commenting")
	ErrInvalidContent    = errors.New("content must be 1-1000 characters after trim")
	ErrInvalidDiscount   = errors.New("discount cannot exceed cost price")
	ErrCartEmpty         = errors.New("cart is empty")

	ErrForbidden               = errors.New("access denied")
	ErrEmailTaken              = errors.New("email already registered")
	ErrDuplicateSKU            = errors.New("sku already exists")
	ErrDuplicateCategory       = errors.New("category name already exists")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidRefreshToken     = errors.New("invalid or expired refresh token")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)
