package repository

import (
	"context"
	"errors"
	"fmt"

	"bramblemart/internal/app/store/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create создает новый товар вместе со связями на категории
func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	result := r.db.WithContext(ctx).Create(product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return result.Error
	}
	return nil
}

// GetByID получает товар по ID вместе с категориями
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).Preload("Categories").First(&product, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, result.Error
	}

	return &product, nil
}

// Update сохраняет изменения товара
// Производные поля (selling_price, агрегаты оценок) уже рассчитаны сервисом
func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	result := r.db.WithContext(ctx).Model(product).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"sku":           product.SKU,
		"name":          product.Name,
		"description":   product.Description,
		"cost_price":    product.CostPrice,
		"discount":      product.Discount,
		"selling_price": product.SellingPrice,
		"stock":         product.Stock,
		"tags":          product.Tags,
		"images":        product.Images,
		"is_active":     product.IsActive,
	})

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// ReplaceCategories заменяет набор категорий товара
func (r *productRepository) ReplaceCategories(ctx context.Context, product *entity.Product, categories []entity.Category) error {
	if err := r.db.WithContext(ctx).Model(product).Association("Categories").Replace(categories); err != nil {
		return fmt.Errorf("failed to replace product categories: %w", err)
	}
	product.Categories = categories
	return nil
}

// Deactivate помечает товар неактивным (мягкое удаление, строк не удаляем)
func (r *productRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&entity.Product{}).Where("id = ?", id).Update("is_active", false)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// List композирует фильтры, сортировку и пагинацию каталога
// Все предикаты соединяются через AND; вторичный ключ сортировки - id,
// чтобы страницы оставались детерминированными при равных значениях
func (r *productRepository) List(ctx context.Context, query *entity.ProductQuery) ([]entity.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&entity.Product{}).Where("products.is_active = ?", true)

	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		q = q.Where("products.name ILIKE ? OR products.description ILIKE ?", pattern, pattern)
	}

	if query.Category != "" {
		q = q.Joins("JOIN product_categories pc ON pc.product_id = products.id").
			Joins("JOIN categories c ON c.id = pc.category_id").
			Where("c.name = ?", query.Category)
	}

	if query.MinPrice != nil {
		q = q.Where("products.selling_price >= ?", *query.MinPrice)
	}

	if query.MaxPrice != nil {
		q = q.Where("products.selling_price <= ?", *query.MaxPrice)
	}

	if query.InStockOnly {
		q = q.Where("products.stock > 0")
	}

	if query.OnSale {
		q = q.Where("products.discount > 0")
	}

	if query.Trending {
		q = q.Where("products.trending_score > 0")
	}

	// Общее количество до применения пагинации
	var total int64
	if err := q.Session(&gorm.Session{}).Distinct("products.id").Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	q = q.Order(orderClause(query.Sort))

	offset := (query.Page - 1) * query.Limit
	var products []entity.Product
	result := q.Preload("Categories").Limit(query.Limit).Offset(offset).Find(&products)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", result.Error)
	}

	return products, total, nil
}

// orderClause переводит ключ сортировки в SQL ORDER BY
func orderClause(sort entity.ProductSort) string {
	switch sort {
	case entity.SortNewest:
		return "products.created_at DESC, products.id ASC"
	case entity.SortPriceLow:
		return "products.selling_price ASC, products.id ASC"
	case entity.SortPriceHigh:
		return "products.selling_price DESC, products.id ASC"
	case entity.SortNameAsc:
		return "products.name ASC, products.id ASC"
	case entity.SortNameDesc:
		return "products.name DESC, products.id ASC"
	case entity.SortTrending:
		return "products.trending_score DESC, products.id ASC"
	case entity.SortDiscount:
		return "products.discount DESC, products.id ASC"
	default:
		// featured - стабильный порядок по умолчанию
		return "products.created_at ASC, products.id ASC"
	}
}

// UpdateTrendingScores перезаписывает trending_score всех товаров одной транзакцией
// Сначала обнуляет все значения, затем выставляет новые - итог всегда
// отражает единый снимок продаж, а не накопленный счетчик
func (r *productRepository) UpdateTrendingScores(ctx context.Context, scores map[uuid.UUID]float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Product{}).Where("trending_score <> 0").Update("trending_score", 0).Error; err != nil {
			return fmt.Errorf("failed to reset trending scores: %w", err)
		}

		for id, score := range scores {
			if err := tx.Model(&entity.Product{}).Where("id = ?", id).Update("trending_score", score).Error; err != nil {
				return fmt.Errorf("failed to update trending score: %w", err)
			}
		}

		return nil
	})
}
