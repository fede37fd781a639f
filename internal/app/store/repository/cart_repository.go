package repository

import (
	"context"
	"fmt"

	"bramblemart/internal/app/store/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository создает новый репозиторий корзин
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetOrCreate возвращает корзину пользователя вместе с позициями,
// создавая пустую при отсутствии
// Вместо read-then-insert используется атомарный upsert: при гонке двух
// запросов вторая вставка тихо проигрывает и оба читают одну строку
func (r *cartRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*entity.Cart, error) {
	candidate := entity.Cart{
		ID:     uuid.New(),
		UserID: userID,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&candidate)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to upsert cart: %w", result.Error)
	}

	var cart entity.Cart
	result = r.db.WithContext(ctx).Preload("Items").First(&cart, "user_id = ?", userID)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load cart: %w", result.Error)
	}

	return &cart, nil
}

// Save перезаписывает позиции и итоги корзины одной транзакцией
// Позиции заменяются целиком, чтобы итоги никогда не расходились с items
func (r *cartRepository) Save(ctx context.Context, cart *entity.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&entity.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart items: %w", err)
		}

		if len(cart.Items) > 0 {
			if err := tx.Create(&cart.Items).Error; err != nil {
				return fmt.Errorf("failed to save cart items: %w", err)
			}
		}

		result := tx.Model(&entity.Cart{}).Where("id = ?", cart.ID).Updates(map[string]interface{}{
			"total_amount": cart.TotalAmount,
			"item_count":   cart.ItemCount,
		})
		if result.Error != nil {
			return fmt.Errorf("failed to update cart totals: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrCartNotFound
		}

		return nil
	})
}
