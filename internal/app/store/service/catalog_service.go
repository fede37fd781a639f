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

	"github.com/google/uuid"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100

	categoriesCacheTTL = time.Hour
)

// CatalogService обрабатывает бизнес-логику каталога товаров
// Координирует работу репозиториев, Redis кеша и Kafka producer
type CatalogService struct {
	categoryRepo  repository.CategoryRepository
	productRepo   repository.ProductRepository
	cache         infrastructure.CategoryCache
	kafkaProducer infrastructure.MessagePublisher
}

// NewCatalogService создает новый сервис каталога с внедрением зависимостей
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	cache infrastructure.CategoryCache,
	kafkaProducer infrastructure.MessagePublisher,
) *CatalogService {
	return &CatalogService{
		categoryRepo:  categoryRepo,
		productRepo:   productRepo,
		cache:         cache,
		kafkaProducer: kafkaProducer,
	}
}

// === CATEGORIES ===

// CreateCategory создает новую категорию и инвалидирует кеш
func (s *CatalogService) CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	category := &entity.Category{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateCategory
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidateCategoriesCache(ctx)

	return category, nil
}

// GetAllCategories получает все категории с кешированием в Redis
// Сначала проверяет кеш, если нет - загружает из БД и кеширует на час
func (s *CatalogService) GetAllCategories(ctx context.Context) ([]entity.Category, error) {
	categories, err := s.cache.GetCategories(ctx)
	if err == nil && len(categories) > 0 {
		return categories, nil
	}

	categories, err = s.categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	if err := s.cache.SetCategories(ctx, categories, categoriesCacheTTL); err != nil {
		// Данные получены из БД, проблемы с кешем не критичны
		logger.Warn().Err(err).Msg("failed to cache categories")
	}

	return categories, nil
}

// UpdateCategory обновляет категорию и инвалидирует кеш
func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	category.Name = req.Name

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateCategory
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.invalidateCategoriesCache(ctx)

	return category, nil
}

// DeleteCategory удаляет категорию и инвалидирует кеш
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.invalidateCategoriesCache(ctx)

	return nil
}

// === PRODUCTS ===

// CreateProduct создает новый товар
// SellingPrice всегда выводится из CostPrice и Discount, из запроса не принимается
func (s *CatalogService) CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error) {
	if req.Discount > req.CostPrice {
		return nil, ErrInvalidDiscount
	}

	categories, err := s.resolveCategories(ctx, req.CategoryIDs)
	if err != nil {
		return nil, err
	}

	product := &entity.Product{
		ID:          uuid.New(),
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		CostPrice:   req.CostPrice,
		Discount:    req.Discount,
		Stock:       req.Stock,
		Tags:        req.Tags,
		Images:      req.Images,
		IsActive:    true,
		Categories:  categories,
	}
	applyPricing(product)

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateSKU
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// GetProduct получает товар по ID вместе с категориями
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return product, nil
}

// ListProducts композирует фильтрацию, сортировку и пагинацию каталога
// Все переданные предикаты соединяются через AND
func (s *CatalogService) ListProducts(ctx context.Context, query *entity.ProductQuery) (*entity.ProductListResponse, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = defaultPageSize
	}
	if query.Limit > maxPageSize {
		query.Limit = maxPageSize
	}

	products, total, err := s.productRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	pages := int((total + int64(query.Limit) - 1) / int64(query.Limit))

	return &entity.ProductListResponse{
		Products: products,
		Pagination: entity.Pagination{
			Page:    query.Page,
			Pages:   pages,
			Total:   total,
			HasNext: int64(query.Page*query.Limit) < total,
		},
	}, nil
}

// UpdateProduct обновляет товар, пересчитывая производную цену
// При изменении ценовых полей отправляет событие PRODUCT_UPDATED в Kafka
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *entity.UpdateProductRequest) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	oldSellingPrice := product.SellingPrice

	// Обновляем только переданные поля (частичное обновление)
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.CostPrice != nil {
		product.CostPrice = *req.CostPrice
	}
	if req.Discount != nil {
		product.Discount = *req.Discount
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Tags != nil {
		product.Tags = req.Tags
	}
	if req.Images != nil {
		product.Images = req.Images
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if product.Discount > product.CostPrice {
		return nil, ErrInvalidDiscount
	}
	applyPricing(product)

	if len(req.CategoryIDs) > 0 {
		categories, err := s.resolveCategories(ctx, req.CategoryIDs)
		if err != nil {
			return nil, err
		}
		if err := s.productRepo.ReplaceCategories(ctx, product, categories); err != nil {
			return nil, fmt.Errorf("failed to update product categories: %w", err)
		}
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	// Событие отправляется только при смене отпускной цены
	if product.SellingPrice != oldSellingPrice {
		event := entity.ProductEvent{
			EventType:    "PRODUCT_UPDATED",
			ProductID:    product.ID,
			Name:         product.Name,
			SellingPrice: product.SellingPrice,
			Timestamp:    time.Now(),
		}
		if err := s.publishProductEvent(ctx, event); err != nil {
			// Товар уже обновлен, проблемы с Kafka не критичны
			logger.Warn().Err(err).Msg("failed to publish product updated event")
		}
	}

	return product, nil
}

// DeactivateProduct мягко отключает товар (строка остается в БД)
func (s *CatalogService) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to deactivate product: %w", err)
	}

	return nil
}

// applyPricing пересчитывает производную отпускную цену
// Вызывается при каждом создании и обновлении товара
func applyPricing(p *entity.Product) {
	p.SellingPrice = p.CostPrice - p.Discount
}

// resolveCategories проверяет что все указанные категории существуют
func (s *CatalogService) resolveCategories(ctx context.Context, categoryIDs []string) ([]entity.Category, error) {
	ids, err := entity.ParseUUIDs(categoryIDs)
	if err != nil {
		return nil, ErrCategoryNotFound
	}

	categories, err := s.categoryRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if len(categories) != len(ids) {
		return nil, ErrCategoryNotFound
	}

	return categories, nil
}

// publishProductEvent отправляет событие о товаре в Kafka
// Key - это ProductID для правильного партиционирования
func (s *CatalogService) publishProductEvent(ctx context.Context, event entity.ProductEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal product event: %w", err)
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.ProductID.String(), eventData); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}

// invalidateCategoriesCache сбрасывает кеш категорий после мутации
func (s *CatalogService) invalidateCategoriesCache(ctx context.Context) {
	if err := s.cache.DeleteCategories(ctx); err != nil {
		// Мутация уже применена, проблемы с кешем не критичны
		logger.Warn().Err(err).Msg("failed to invalidate categories cache")
	}
}
