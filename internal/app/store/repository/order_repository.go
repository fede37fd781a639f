package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bramblemart/internal/app/store/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository создает новый репозиторий заказов
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// PlaceOrder атомарно оформляет заказ из корзины:
// 1. Условно списывает остатки (UPDATE ... WHERE stock >= quantity)
// 2. Сохраняет заказ с позициями
// 3. Очищает корзину и обнуляет её итоги
// При нехватке остатка транзакция откатывается с ErrInsufficientStock
func (r *orderRepository) PlaceOrder(ctx context.Context, order *entity.Order, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			result := tx.Model(&entity.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to decrement stock: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return ErrInsufficientStock
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if err := tx.Where("cart_id = ?", cartID).Delete(&entity.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		result := tx.Model(&entity.Cart{}).Where("id = ?", cartID).Updates(map[string]interface{}{
			"total_amount": 0,
			"item_count":   0,
		})
		if result.Error != nil {
			return fmt.Errorf("failed to reset cart totals: %w", result.Error)
		}

		return nil
	})
}

// GetByID получает заказ по ID вместе с позициями
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	result := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}

	return &order, nil
}

// GetByUserID получает все заказы пользователя, новые первыми
func (r *orderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Order, error) {
	var orders []entity.Order
	result := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders)

	if result.Error != nil {
		return nil, result.Error
	}

	return orders, nil
}

// GetByStatus получает заказы в указанном статусе (используется воркером)
func (r *orderRepository) GetByStatus(ctx context.Context, status entity.OrderStatus) ([]entity.Order, error) {
	var orders []entity.Order
	result := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&orders)

	if result.Error != nil {
		return nil, result.Error
	}

	return orders, nil
}

// UpdateStatus сохраняет новый статус заказа
// Допустимость перехода проверяет сервисный слой
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) error {
	result := r.db.WithContext(ctx).Model(&entity.Order{}).Where("id = ?", id).Update("status", status)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// UnitsSoldSince возвращает суммарные продажи по товарам начиная с указанного
// момента; отмененные заказы не учитываются
func (r *orderRepository) UnitsSoldSince(ctx context.Context, since time.Time) (map[uuid.UUID]int64, error) {
	type row struct {
		ProductID uuid.UUID
		Units     int64
	}

	var rows []row
	result := r.db.WithContext(ctx).Model(&entity.OrderItem{}).
		Select("order_items.product_id, SUM(order_items.quantity) as units").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.status <> ?", since, entity.OrderStatusCancelled).
		Group("order_items.product_id").
		Scan(&rows)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", result.Error)
	}

	sales := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		sales[r.ProductID] = r.Units
	}

	return sales, nil
}
