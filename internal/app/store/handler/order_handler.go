package handler

import (
	"context"
	"errors"
	"net/http"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type OrderServiceInterface interface {
	Checkout(ctx context.Context, userID uuid.UUID, req *entity.CheckoutRequest) (*entity.Order, error)
	GetOrder(ctx context.Context, userID uuid.UUID, role entity.UserRole, orderID uuid.UUID) (*entity.Order, error)
	GetUserOrders(ctx context.Context, userID uuid.UUID) ([]entity.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus entity.OrderStatus) (*entity.Order, error)
	CancelOrder(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) (*entity.Order, error)
}

type OrderHandler struct {
	orderService OrderServiceInterface
	validator    *validator.Validate
}

func NewOrderHandler(orderService OrderServiceInterface) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validator:    newValidator(),
	}
}

// Checkout обрабатывает POST /api/orders
// Оформляет заказ из текущей корзины пользователя
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req entity.CheckoutRequest
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

	order, err := h.orderService.Checkout(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartEmpty):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Cart is empty"})
		case errors.Is(err, service.ErrInsufficientStock):
			c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "Not enough stock"})
		default:
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to place order"})
		}
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder обрабатывает GET /api/orders/:order_id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid order ID"})
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), userID, roleFromContext(c), orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Order not found"})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, entity.ErrorResponse{Error: "Access denied"})
		default:
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to get order"})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetMyOrders обрабатывает GET /api/orders
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	orders, err := h.orderService.GetUserOrders(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to get orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

// UpdateStatus обрабатывает PATCH /api/orders/:order_id/status (admin)
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid order ID"})
		return
	}

	var req entity.UpdateOrderStatusRequest
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

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Order not found"})
		case errors.Is(err, service.ErrInvalidStatusTransition):
			c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "Invalid status transition"})
		default:
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to update status"})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelOrder обрабатывает POST /api/orders/:order_id/cancel
// Владелец может отменить заказ пока он не взят в обработку
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid order ID"})
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Order not found"})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, entity.ErrorResponse{Error: "Access denied"})
		case errors.Is(err, service.ErrInvalidStatusTransition):
			c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "Order can no longer be cancelled"})
		default:
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to cancel order"})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}
