package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/repository"
	"bramblemart/internal/app/store/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCatalogService() (*CatalogService, *mocks.MockCategoryRepository, *mocks.MockProductRepository, *mocks.MockCategoryCache, *mocks.MockMessagePublisher) {
	categoryRepo := new(mocks.MockCategoryRepository)
	productRepo := new(mocks.MockProductRepository)
	cache := new(mocks.MockCategoryCache)
	kafkaProducer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	return NewCatalogService(categoryRepo, productRepo, cache, kafkaProducer), categoryRepo, productRepo, cache, kafkaProducer
}

func TestGetAllCategories_CacheHit(t *testing.T) {
	service, categoryRepo, _, cache, _ := newCatalogService()

	ctx := context.Background()
	cached := []entity.Category{{ID: uuid.New(), Name: "Jams"}}

	cache.On("GetCategories", ctx).Return(cached, nil)

	categories, err := service.GetAllCategories(ctx)

	assert.NoError(t, err)
	assert.Equal(t, cached, categories)
	categoryRepo.AssertNotCalled(t, "GetAll", mock.Anything)
}

func TestGetAllCategories_CacheMissFallsBackToDB(t *testing.T) {
	service, categoryRepo, _, cache, _ := newCatalogService()

	ctx := context.Background()
	stored := []entity.Category{{ID: uuid.New(), Name: "Jams"}, {ID: uuid.New(), Name: "Teas"}}

	cache.On("GetCategories", ctx).Return(nil, errors.New("redis: nil"))
	categoryRepo.On("GetAll", ctx).Return(stored, nil)
	cache.On("SetCategories", ctx, stored, time.Hour).Return(nil)

	categories, err := service.GetAllCategories(ctx)

	assert.NoError(t, err)
	assert.Len(t, categories, 2)
	cache.AssertCalled(t, "SetCategories", ctx, stored, time.Hour)
}

func TestCreateCategory_DuplicateName(t *testing.T) {
	service, categoryRepo, _, cache, _ := newCatalogService()

	ctx := context.Background()

	categoryRepo.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicateKey)

	category, err := service.CreateCategory(ctx, &entity.CreateCategoryRequest{Name: "Jams"})

	assert.ErrorIs(t, err, ErrDuplicateCategory)
	assert.Nil(t, category)
	cache.AssertNotCalled(t, "DeleteCategories", mock.Anything)
}

func TestDeleteCategory_InvalidatesCache(t *testing.T) {
	service, categoryRepo, _, cache, _ := newCatalogService()

	ctx := context.Background()
	categoryID := uuid.New()

	categoryRepo.On("Delete", ctx, categoryID).Return(nil)
	cache.On("DeleteCategories", ctx).Return(nil)

	err := service.DeleteCategory(ctx, categoryID)

	assert.NoError(t, err)
	cache.AssertCalled(t, "DeleteCategories", ctx)
}

func TestCreateProduct_DerivesSellingPrice(t *testing.T) {
	service, categoryRepo, productRepo, _, _ := newCatalogService()

	ctx := context.Background()
	category := entity.Category{ID: uuid.New(), Name: "Jams"}

	categoryRepo.On("GetByIDs", ctx, []uuid.UUID{category.ID}).Return([]entity.Category{category}, nil)
	productRepo.On("Create", ctx, mock.AnythingOfType("*entity.Product")).Return(nil)

	product, err := service.CreateProduct(ctx, &entity.CreateProductRequest{
		SKU:         "JAM-001",
		Name:        "Blackberry Jam",
		CostPrice:   6.00,
		Discount:    1.50,
		Stock:       20,
		Images:      []string{"https://img.example.com/jam.jpg"},
		CategoryIDs: []string{category.ID.String()},
	})

	assert.NoError(t, err)
	assert.Equal(t, 4.50, product.SellingPrice)
	assert.True(t, product.IsActive)
}

func TestCreateProduct_DiscountExceedsCostPrice(t *testing.T) {
	service, _, productRepo, _, _ := newCatalogService()

	ctx := context.Background()

	product, err := service.CreateProduct(ctx, &entity.CreateProductRequest{
		SKU:         "JAM-001",
		Name:        "Blackberry Jam",
		CostPrice:   5.00,
		Discount:    6.00,
		Images:      []string{"https://img.example.com/jam.jpg"},
		CategoryIDs: []string{uuid.New().String()},
	})

	assert.ErrorIs(t, err, ErrInvalidDiscount)
	assert.Nil(t, product)
	productRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	service, categoryRepo, _, _, _ := newCatalogService()

	ctx := context.Background()
	categoryID := uuid.New()

	categoryRepo.On("GetByIDs", ctx, []uuid.UUID{categoryID}).Return([]entity.Category{}, nil)

	product, err := service.CreateProduct(ctx, &entity.CreateProductRequest{
		SKU:         "JAM-001",
		Name:        "Blackberry Jam",
		CostPrice:   5.00,
		Images:      []string{"https://img.example.com/jam.jpg"},
		CategoryIDs: []string{categoryID.String()},
	})

	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.Nil(t, product)
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	service, categoryRepo, productRepo, _, _ := newCatalogService()

	ctx := context.Background()
	category := entity.Category{ID: uuid.New(), Name: "Jams"}

	categoryRepo.On("GetByIDs", ctx, mock.Anything).Return([]entity.Category{category}, nil)
	productRepo.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicateKey)

	product, err := service.CreateProduct(ctx, &entity.CreateProductRequest{
		SKU:         "JAM-001",
		Name:        "Blackberry Jam",
		CostPrice:   5.00,
		Images:      []string{"https://img.example.com/jam.jpg"},
		CategoryIDs: []string{category.ID.String()},
	})

	assert.ErrorIs(t, err, ErrDuplicateSKU)
	assert.Nil(t, product)
}

func TestListProducts_PaginationMath(t *testing.T) {
	service, _, productRepo, _, _ := newCatalogService()

	ctx := context.Background()

	productRepo.On("List", ctx, mock.AnythingOfType("*entity.ProductQuery")).
		Return([]entity.Product{*activeProduct(5)}, int64(25), nil)

	result, err := service.ListProducts(ctx, &entity.ProductQuery{Page: 2, Limit: 12})

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Pagination.Page)
	assert.Equal(t, 3, result.Pagination.Pages)
	assert.Equal(t, int64(25), result.Pagination.Total)
	assert.True(t, result.Pagination.HasNext)
}

func TestListProducts_ClampsPageAndLimit(t *testing.T) {
	service, _, productRepo, _, _ := newCatalogService()

	ctx := context.Background()

	productRepo.On("List", ctx, mock.MatchedBy(func(q *entity.ProductQuery) bool {
		return q.Page == 1 && q.Limit == defaultPageSize
	})).Return([]entity.Product{}, int64(0), nil)

	_, err := service.ListProducts(ctx, &entity.ProductQuery{Page: 0, Limit: -5})

	assert.NoError(t, err)
	productRepo.AssertExpectations(t)
}

func TestUpdateProduct_PublishesEventOnlyOnPriceChange(t *testing.T) {
	service, _, productRepo, _, kafkaProducer := newCatalogService()

	ctx := context.Background()
	product := activeProduct(5)
	product.CostPrice = 6.00
	product.Discount = 1.50

	newStock := 30

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	productRepo.On("Update", ctx, product).Return(nil)

	// Обновление только остатка: цена не меняется, события нет
	_, err := service.UpdateProduct(ctx, product.ID, &entity.UpdateProductRequest{Stock: &newStock})
	assert.NoError(t, err)
	assert.Empty(t, kafkaProducer.Messages)

	newDiscount := 2.00
	kafkaProducer.On("PublishMessage", ctx, product.ID.String(), mock.Anything).Return(nil)

	updated, err := service.UpdateProduct(ctx, product.ID, &entity.UpdateProductRequest{Discount: &newDiscount})
	assert.NoError(t, err)
	assert.Equal(t, 4.00, updated.SellingPrice)
	assert.Len(t, kafkaProducer.Messages, 1)
}

func TestUpdateProduct_InvalidDiscount(t *testing.T) {
	service, _, productRepo, _, _ := newCatalogService()

	ctx := context.Background()
	product := activeProduct(5)
	product.CostPrice = 5.00

	badDiscount := 10.00

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)

	updated, err := service.UpdateProduct(ctx, product.ID, &entity.UpdateProductRequest{Discount: &badDiscount})

	assert.ErrorIs(t, err, ErrInvalidDiscount)
	assert.Nil(t, updated)
	productRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeactivateProduct_NotFound(t *testing.T) {
	service, _, productRepo, _, _ := newCatalogService()

	ctx := context.Background()
	productID := uuid.New()

	productRepo.On("Deactivate", ctx, productID).Return(repository.ErrProductNotFound)

	err := service.DeactivateProduct(ctx, productID)

	assert.ErrorIs(t, err, ErrProductNotFound)
}
