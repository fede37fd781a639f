package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CartServiceInterface interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*entity.Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*entity.Cart, error)
	SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*entity.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*entity.Cart, error)
}

type CartHandler struct {
	cartService CartServiceInterface
	validator   *validator.Validate
}

func NewCartHandler(cartService CartServiceInterface) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validator:   newValidator(),
	}
}

// GetCart обрабатывает GET /api/cart
// У пользователя без корзины возвращается пустая корзина, не 404
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	cart, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to get cart"})
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart))
}

// AddItem обрабатывает POST /api/cart
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req entity.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:  "Validation failed",
			Fields: collectValidationErrors(err),
		})
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), userID, productID, quantity)
	if err != nil {
		h.respondCartError(c, err, "Failed to add item")
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart))
}

// SetItemQuantity обрабатывает PUT /api/cart
// Нулевое количество удаляет позицию
func (h *CartHandler) SetItemQuantity(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req entity.SetCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:  "Validation failed",
			Fields: collectValidationErrors(err),
		})
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	cart, err := h.cartService.SetItemQuantity(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		h.respondCartError(c, err, "Failed to update item")
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart))
}

// RemoveItem обрабатывает DELETE /api/cart?productId=
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	productID, err := uuid.Parse(c.Query("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	cart, err := h.cartService.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		h.respondCartError(c, err, "Failed to remove item")
		return
	}

	c.JSON(http.StatusOK, cartResponse(cart))
}

// respondCartError переводит ошибки сервиса корзины в HTTP статусы
func (h *CartHandler) respondCartError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Product not found"})
	case errors.Is(err, service.ErrCartItemNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Item not in cart"})
	case errors.Is(err, service.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid quantity"})
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Not enough stock"})
	default:
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: fallback})
	}
}

// cartResponse собирает форму ответа корзины
func cartResponse(cart *entity.Cart) entity.CartResponse {
	items := cart.Items
	if items == nil {
		items = []entity.CartItem{}
	}

	return entity.CartResponse{
		Success:    true,
		Items:      items,
		Total:      cart.TotalAmount,
		ItemCount:  cart.ItemCount,
		LastSynced: time.Now(),
	}
}
