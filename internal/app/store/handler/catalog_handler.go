package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CatalogServiceInterface interface {
	CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error)
	GetAllCategories(ctx context.Context) ([]entity.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	ListProducts(ctx context.Context, query *entity.ProductQuery) (*entity.ProductListResponse, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *entity.UpdateProductRequest) (*entity.Product, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) error
}

type CatalogHandler struct {
	catalogService CatalogServiceInterface
	validator      *validator.Validate
}

func NewCatalogHandler(catalogService CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		validator:      newValidator(),
	}
}

// === CATEGORIES ===

// CreateCategory обрабатывает POST /api/categories (admin)
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req entity.CreateCategoryRequest
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

	category, err := h.catalogService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateCategory) {
			c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "Category already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, category)
}

// GetCategories обрабатывает GET /api/categories
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalogService.GetAllCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to get categories"})
		return
	}

	c.JSON(http.StatusOK, entity.CategoryListResponse{
		Categories: categories,
		Total:      len(categories),
	})
}

// UpdateCategory обрабатывает PATCH /api/categories/:category_id (admin)
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("category_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid category ID"})
		return
	}

	var req entity.UpdateCategoryRequest
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

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), categoryID, &req)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Category not found"})
			return
		}
		if errors.Is(err, service.ErrDuplicateCategory) {
			c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "Category already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to update category"})
		return
	}

	c.JSON(http.StatusOK, category)
}

// DeleteCategory обрабатывает DELETE /api/categories/:category_id (admin)
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("category_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid category ID"})
		return
	}

	if err := h.catalogService.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to delete category"})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Success: true, Message: "Category deleted"})
}

// === PRODUCTS ===

// CreateProduct обрабатывает POST /api/products (admin)
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req entity.CreateProductRequest
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

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateSKU):
			c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "SKU already exists"})
		case errors.Is(err, service.ErrInvalidDiscount):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Discount cannot exceed cost price"})
		case errors.Is(err, service.ErrCategoryNotFound):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Unknown category"})
		default:
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to create product"})
		}
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProduct обрабатывает GET /api/products/:product_id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to get product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProducts обрабатывает GET /api/products
// Поддерживает search, category, sort, minPrice, maxPrice,
// inStock, onSale, trending, page, limit
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	query := parseProductQuery(c)

	response, err := h.catalogService.ListProducts(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to list products"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateProduct обрабатывает PATCH /api/products/:product_id (admin)
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	var req entity.UpdateProductRequest
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

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), productID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Product not found"})
		case errors.Is(err, service.ErrInvalidDiscount):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Discount cannot exceed cost price"})
		case errors.Is(err, service.ErrCategoryNotFound):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Unknown category"})
		default:
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to update product"})
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeactivateProduct обрабатывает DELETE /api/products/:product_id (admin)
// Товар не удаляется из БД, только скрывается из каталога
func (h *CatalogHandler) DeactivateProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	if err := h.catalogService.DeactivateProduct(c.Request.Context(), productID); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to deactivate product"})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Success: true, Message: "Product deactivated"})
}

// parseProductQuery разбирает query-параметры каталога
// Невалидные значения молча заменяются значениями по умолчанию
func parseProductQuery(c *gin.Context) *entity.ProductQuery {
	query := &entity.ProductQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Sort:     entity.ProductSort(c.DefaultQuery("sort", string(entity.SortFeatured))),
	}

	if v, err := strconv.ParseFloat(c.Query("minPrice"), 64); err == nil && v >= 0 {
		query.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("maxPrice"), 64); err == nil && v >= 0 {
		query.MaxPrice = &v
	}

	query.InStockOnly = c.Query("inStock") == "true"
	query.OnSale = c.Query("onSale") == "true"
	query.Trending = c.Query("trending") == "true"

	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		query.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		query.Limit = v
	}

	return query
}
