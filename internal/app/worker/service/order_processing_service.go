package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/repository"
	"bramblemart/pkg/metrics"
)

// OrderProcessingServiceInterface определяет интерфейс обработки событий заказов
type OrderProcessingServiceInterface interface {
	// ProcessOrderEvent обрабатывает событие заказа из Kafka
	ProcessOrderEvent(ctx context.Context, event *entity.OrderEvent) error
}

// OrderProcessingService переводит свежие заказы в обработку
// Реагирует на события ORDER_CREATED из Kafka
type OrderProcessingService struct {
	orderRepo repository.OrderRepository
}

// NewOrderProcessingService создает новый сервис обработки заказов
func NewOrderProcessingService(orderRepo repository.OrderRepository) *OrderProcessingService {
	return &OrderProcessingService{orderRepo: orderRepo}
}

// ProcessOrderEvent обрабатывает событие заказа из Kafka
func (s *OrderProcessingService) ProcessOrderEvent(ctx context.Context, event *entity.OrderEvent) error {
	switch event.EventType {
	case "ORDER_CREATED":
		return s.processOrderCreated(ctx, event)
	case "ORDER_UPDATED":
		// Смена статуса обрабатывается синхронно в API, здесь делать нечего
		log.Printf("Received ORDER_UPDATED event for order %s, skipping processing", event.OrderID)
		return nil
	default:
		log.Printf("Unknown event type: %s for order %s", event.EventType, event.OrderID)
		return nil
	}
}

// processOrderCreated переводит заказ из pending в processing
// Заказ мог быть отменен владельцем до прихода события - это не ошибка
func (s *OrderProcessingService) processOrderCreated(ctx context.Context, event *entity.OrderEvent) error {
	log.Printf("Processing ORDER_CREATED for order %s", event.OrderID)

	start := time.Now()

	order, err := s.orderRepo.GetByID(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			log.Printf("Order %s not found, skipping processing", event.OrderID)
			return nil
		}
		metrics.WorkerOrdersProcessed.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to get order: %w", err)
	}

	if order.Status != entity.OrderStatusPending {
		log.Printf("Order %s is %s, not pending, skipping processing", order.ID, order.Status)
		return nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, entity.OrderStatusProcessing); err != nil {
		metrics.WorkerOrdersProcessed.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to update order status: %w", err)
	}

	metrics.WorkerOrdersProcessed.WithLabelValues("success").Inc()
	metrics.WorkerProcessingDuration.Observe(time.Since(start).Seconds())

	log.Printf("Successfully moved order %s to processing", order.ID)

	return nil
}
