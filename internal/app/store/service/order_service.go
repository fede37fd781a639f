package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/infrastructure"
	"bramblemart/internal/app/store/repository"
	"bramblemart/pkg/logger"
	"bramblemart/pkg/metrics"

	"github.com/google/uuid"
)

// OrderService обрабатывает бизнес-логику заказов
// Оформление заказа атомарно переносит корзину в заказ:
// списание остатков, создание заказа и очистка корзины в одной транзакции
type OrderService struct {
	orderRepo     repository.OrderRepository
	cartRepo      repository.CartRepository
	kafkaProducer infrastructure.MessagePublisher
}

// NewOrderService создает новый сервис заказов с внедрением зависимостей
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	kafkaProducer infrastructure.MessagePublisher,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		cartRepo:      cartRepo,
		kafkaProducer: kafkaProducer,
	}
}

// Checkout оформляет заказ из текущей корзины пользователя
// Позиции заказа - снимок позиций корзины, после успеха корзина пуста
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, req *entity.CheckoutRequest) (*entity.Order, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}

	order := &entity.Order{
		ID:          uuid.New(),
		UserID:      userID,
		Status:      entity.OrderStatusPending,
		TotalAmount: cart.TotalAmount,
		ItemCount:   cart.ItemCount,
		ShipName:    req.ShipName,
		ShipPhone:   req.ShipPhone,
		ShipStreet:  req.ShipStreet,
		ShipCity:    req.ShipCity,
		ShipZip:     req.ShipZip,
		ShipCountry: req.ShipCountry,
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, entity.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			SKU:       item.SKU,
			Image:     item.Image,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		})
	}

	if err := s.orderRepo.PlaceOrder(ctx, order, cart.ID); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	metrics.OrdersCreated.Inc()
	metrics.OrderAmounts.Observe(order.TotalAmount)

	event := entity.OrderEvent{
		EventType:   "ORDER_CREATED",
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		ItemsCount:  order.ItemCount,
		Timestamp:   time.Now(),
	}
	if err := s.publishOrderEvent(ctx, event); err != nil {
		// Заказ уже создан, проблемы с Kafka не критичны
		logger.Warn().Err(err).Msg("failed to publish order created event")
	}

	return order, nil
}

// GetOrder возвращает заказ по ID
// Обычный пользователь видит только свои заказы, администратор - любые
func (s *OrderService) GetOrder(ctx context.Context, userID uuid.UUID, role entity.UserRole, orderID uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.UserID != userID && role != entity.RoleAdmin {
		return nil, ErrForbidden
	}

	return order, nil
}

// GetUserOrders возвращает заказы пользователя, новые первыми
func (s *OrderService) GetUserOrders(ctx context.Context, userID uuid.UUID) ([]entity.Order, error) {
	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	return orders, nil
}

// UpdateOrderStatus меняет статус заказа с проверкой допустимости перехода
// Вызывается администратором и фоновым обработчиком
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus entity.OrderStatus) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if !isValidStatusTransition(order.Status, newStatus) {
		return nil, ErrInvalidStatusTransition
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = newStatus

	event := entity.OrderEvent{
		EventType:   "ORDER_UPDATED",
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Status:      newStatus,
		ItemsCount:  order.ItemCount,
		Timestamp:   time.Now(),
	}
	if err := s.publishOrderEvent(ctx, event); err != nil {
		logger.Warn().Err(err).Msg("failed to publish order updated event")
	}

	return order, nil
}

// CancelOrder отменяет заказ по инициативе владельца
// Владелец может отменить только заказ в статусе pending
func (s *OrderService) CancelOrder(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.UserID != userID {
		return nil, ErrForbidden
	}
	if order.Status != entity.OrderStatusPending {
		return nil, ErrInvalidStatusTransition
	}

	return s.UpdateOrderStatus(ctx, orderID, entity.OrderStatusCancelled)
}

// isValidStatusTransition проверяет допустимость перехода статуса заказа
// Заказ движется только вперед, отмена возможна до отправки
func isValidStatusTransition(from, to entity.OrderStatus) bool {
	validTransitions := map[entity.OrderStatus][]entity.OrderStatus{
		entity.OrderStatusPending:    {entity.OrderStatusProcessing, entity.OrderStatusCancelled},
		entity.OrderStatusProcessing: {entity.OrderStatusShipped, entity.OrderStatusCancelled},
		entity.OrderStatusShipped:    {entity.OrderStatusDelivered},
		entity.OrderStatusDelivered:  {},
		entity.OrderStatusCancelled:  {},
	}

	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// publishOrderEvent отправляет событие о заказе в Kafka
// Key - это OrderID для правильного партиционирования
func (s *OrderService) publishOrderEvent(ctx context.Context, event entity.OrderEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.OrderID.String(), eventData); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}
