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

type RatingServiceInterface interface {
	Rate(ctx context.Context, userID, productID uuid.UUID, value int) (*entity.RatingAggregate, error)
	DeleteRating(ctx context.Context, userID, productID uuid.UUID) (*entity.RatingAggregate, error)
	GetDistribution(ctx context.Context, productID uuid.UUID) (*entity.RatingDistribution, error)
}

type CommentServiceInterface interface {
	CreateComment(ctx context.Context, userID uuid.UUID, req *entity.CreateCommentRequest) (*entity.Comment, error)
	GetComments(ctx context.Context, query *entity.CommentQuery) (*entity.CommentPage, error)
	UpdateComment(ctx context.Context, userID uuid.UUID, commentID string, req *entity.UpdateCommentRequest) (*entity.Comment, error)
	DeleteComment(ctx context.Context, userID uuid.UUID, role entity.UserRole, commentID string) error
	ToggleLike(ctx context.Context, userID uuid.UUID, commentID string) (*entity.Comment, error)
	ToggleDislike(ctx context.Context, userID uuid.UUID, commentID string) (*entity.Comment, error)
}

// ReviewHandler объединяет оценки и комментарии к товарам
type ReviewHandler struct {
	ratingService  RatingServiceInterface
	commentService CommentServiceInterface
	validator      *validator.Validate
}

func NewReviewHandler(ratingService RatingServiceInterface, commentService CommentServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		ratingService:  ratingService,
		commentService: commentService,
		validator:      newValidator(),
	}
}

// === RATINGS ===

// RateProduct обрабатывает POST /api/ratings
func (h *ReviewHandler) RateProduct(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req entity.RateProductRequest
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

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	agg, err := h.ratingService.Rate(c.Request.Context(), userID, productID, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRating):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Rating must be between 1 and 5"})
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Product not found"})
		default:
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to save rating"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"averageRating": agg.Average,
		"totalRatings":  agg.Count,
	})
}

// DeleteRating обрабатывает DELETE /api/ratings?productId=
func (h *ReviewHandler) DeleteRating(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	productID, err := uuid.Parse(c.Query("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	agg, err := h.ratingService.DeleteRating(c.Request.Context(), userID, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to delete rating"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"averageRating": agg.Average,
		"totalRatings":  agg.Count,
	})
}

// GetRatingDistribution обрабатывает GET /api/ratings/distribution?productId=
func (h *ReviewHandler) GetRatingDistribution(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	distribution, err := h.ratingService.GetDistribution(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to get distribution"})
		return
	}

	c.JSON(http.StatusOK, distribution)
}

// === COMMENTS ===

// CreateComment обрабатывает POST /api/comments
// Комментировать можно только товар, который пользователь уже оценил
func (h *ReviewHandler) CreateComment(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req entity.CreateCommentRequest
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

	comment, err := h.commentService.CreateComment(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRatingRequired):
			c.JSON(http.StatusForbidden, entity.ErrorResponse{Error: "Rate the product before commenting"})
		case errors.Is(err, service.ErrInvalidContent):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Comment must be 1-1000 characters"})
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Product not found"})
		default:
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to create comment"})
		}
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// GetComments обрабатывает GET /api/comments?productId=&page=&limit=&sortBy=&sortOrder=
func (h *ReviewHandler) GetComments(c *gin.Context) {
	query := &entity.CommentQuery{
		ProductID: c.Query("productId"),
		SortBy:    c.DefaultQuery("sortBy", "createdAt"),
		SortOrder: c.DefaultQuery("sortOrder", "desc"),
	}

	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		query.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		query.Limit = v
	}

	page, err := h.commentService.GetComments(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to get comments"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// UpdateComment обрабатывает PUT /api/comments
func (h *ReviewHandler) UpdateComment(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req entity.UpdateCommentRequest
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

	comment, err := h.commentService.UpdateComment(c.Request.Context(), userID, req.CommentID, &req)
	if err != nil {
		h.respondCommentError(c, err, "Failed to update comment")
		return
	}

	c.JSON(http.StatusOK, comment)
}

// DeleteComment обрабатывает DELETE /api/comments?commentId=
func (h *ReviewHandler) DeleteComment(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	err := h.commentService.DeleteComment(c.Request.Context(), userID, roleFromContext(c), c.Query("commentId"))
	if err != nil {
		h.respondCommentError(c, err, "Failed to delete comment")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Success: true, Message: "Comment deleted"})
}

// ToggleLike обрабатывает POST /api/comments/:comment_id/like
func (h *ReviewHandler) ToggleLike(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	comment, err := h.commentService.ToggleLike(c.Request.Context(), userID, c.Param("comment_id"))
	if err != nil {
		h.respondCommentError(c, err, "Failed to toggle like")
		return
	}

	c.JSON(http.StatusOK, comment)
}

// ToggleDislike обрабатывает POST /api/comments/:comment_id/dislike
func (h *ReviewHandler) ToggleDislike(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	comment, err := h.commentService.ToggleDislike(c.Request.Context(), userID, c.Param("comment_id"))
	if err != nil {
		h.respondCommentError(c, err, "Failed to toggle dislike")
		return
	}

	c.JSON(http.StatusOK, comment)
}

// respondCommentError переводит ошибки сервиса комментариев в HTTP статусы
func (h *ReviewHandler) respondCommentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Comment not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, entity.ErrorResponse{Error: "Access denied"})
	case errors.Is(err, service.ErrInvalidContent):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Comment must be 1-1000 characters"})
	default:
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: fallback})
	}
}
