package repository

import (
	"context"
	"fmt"
	"math"

	"bramblemart/internal/app/store/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository создает новый репозиторий оценок
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// Upsert сохраняет единственную оценку пары (user, product) и в той же
// транзакции пересчитывает агрегаты товара по всем строкам ratings
// Агрегат - чистая функция от текущего содержимого таблицы, не инкремент
func (r *ratingRepository) Upsert(ctx context.Context, rating *entity.Rating) (*entity.RatingAggregate, error) {
	var agg entity.RatingAggregate

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(rating)
		if result.Error != nil {
			return fmt.Errorf("failed to upsert rating: %w", result.Error)
		}

		fresh, err := recomputeAggregates(tx, rating.ProductID)
		if err != nil {
			return err
		}

		agg = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &agg, nil
}

// Delete удаляет оценку пары (user, product) и пересчитывает агрегаты товара
// Идемпотентна: отсутствие строки не считается ошибкой
func (r *ratingRepository) Delete(ctx context.Context, userID, productID uuid.UUID) (*entity.RatingAggregate, error) {
	var agg entity.RatingAggregate

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&entity.Rating{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete rating: %w", result.Error)
		}

		fresh, err := recomputeAggregates(tx, productID)
		if err != nil {
			return err
		}

		agg = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &agg, nil
}

// Exists проверяет наличие оценки пары (user, product)
// Используется сервисом комментариев для гейта "сначала оценка"
func (r *ratingRepository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&entity.Rating{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count)

	if result.Error != nil {
		return false, fmt.Errorf("failed to check rating existence: %w", result.Error)
	}

	return count > 0, nil
}

// Distribution возвращает количество оценок по звездам 1..5
// Отсутствующие корзины заполняет нулями
func (r *ratingRepository) Distribution(ctx context.Context, productID uuid.UUID) (map[int]int64, error) {
	type bucket struct {
		Value int
		Count int64
	}

	var buckets []bucket
	result := r.db.WithContext(ctx).Model(&entity.Rating{}).
		Select("value, COUNT(*) as count").
		Where("product_id = ?", productID).
		Group("value").
		Scan(&buckets)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to get rating distribution: %w", result.Error)
	}

	counts := make(map[int]int64, 5)
	for star := 1; star <= 5; star++ {
		counts[star] = 0
	}
	for _, b := range buckets {
		counts[b.Value] = b.Count
	}

	return counts, nil
}

// recomputeAggregates пересчитывает average_rating/total_ratings товара
// по всем текущим строкам ratings и сохраняет результат на products
// Среднее округляется до одного знака; при отсутствии оценок - 0
func recomputeAggregates(tx *gorm.DB, productID uuid.UUID) (*entity.RatingAggregate, error) {
	var row struct {
		Avg   float64
		Count int64
	}

	result := tx.Model(&entity.Rating{}).
		Select("COALESCE(AVG(value), 0) as avg, COUNT(*) as count").
		Where("product_id = ?", productID).
		Scan(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", result.Error)
	}

	avg := math.Round(row.Avg*10) / 10

	update := tx.Model(&entity.Product{}).Where("id = ?", productID).Updates(map[string]interface{}{
		"average_rating": avg,
		"total_ratings":  row.Count,
	})
	if update.Error != nil {
		return nil, fmt.Errorf("failed to store rating aggregates: %w", update.Error)
	}

	return &entity.RatingAggregate{Average: avg, Count: int(row.Count)}, nil
}
