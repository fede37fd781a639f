package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/repository"
	"bramblemart/pkg/metrics"

	"github.com/google/uuid"
)

const (
	minCommentLength = 1
	maxCommentLength = 1000

	defaultCommentsPageSize = 10
	maxCommentsPageSize     = 50
)

// CommentService обрабатывает бизнес-логику комментариев к товарам
// Комментарии живут в MongoDB, но право комментировать проверяется
// по таблице оценок в PostgreSQL: сначала оценка, потом комментарий
type CommentService struct {
	commentRepo repository.CommentRepository
	ratingRepo  repository.RatingRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

// NewCommentService создает новый сервис комментариев с внедрением зависимостей
func NewCommentService(
	commentRepo repository.CommentRepository,
	ratingRepo repository.RatingRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		ratingRepo:  ratingRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// CreateComment создает комментарий к товару
// Пользователь обязан сначала оценить товар, иначе ErrRatingRequired
func (s *CommentService) CreateComment(ctx context.Context, userID uuid.UUID, req *entity.CreateCommentRequest) (*entity.Comment, error) {
	content := strings.TrimSpace(req.Content)
	// Лимит в символах, не в байтах: кириллица занимает два байта
	if n := utf8.RuneCountInString(content); n < minCommentLength || n > maxCommentLength {
		return nil, ErrInvalidContent
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}

	rated, err := s.ratingRepo.Exists(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to check rating: %w", err)
	}
	if !rated {
		return nil, ErrRatingRequired
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := time.Now()
	comment := &entity.Comment{
		ProductID: productID.String(),
		UserID:    userID.String(),
		UserName:  user.Name,
		Content:   content,
		Reactions: map[string]entity.Reaction{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	metrics.CommentsCreated.Inc()

	return comment, nil
}

// GetComments возвращает страницу комментариев товара
func (s *CommentService) GetComments(ctx context.Context, query *entity.CommentQuery) (*entity.CommentPage, error) {
	if _, err := uuid.Parse(query.ProductID); err != nil {
		return nil, ErrProductNotFound
	}

	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = defaultCommentsPageSize
	}
	if query.Limit > maxCommentsPageSize {
		query.Limit = maxCommentsPageSize
	}
	if query.SortBy != "likes" {
		query.SortBy = "createdAt"
	}
	if query.SortOrder != "asc" {
		query.SortOrder = "desc"
	}

	comments, total, err := s.commentRepo.ListByProduct(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	totalPages := int((total + int64(query.Limit) - 1) / int64(query.Limit))

	return &entity.CommentPage{
		Comments:      comments,
		CurrentPage:   query.Page,
		TotalPages:    totalPages,
		TotalComments: total,
		HasNextPage:   query.Page < totalPages,
		HasPrevPage:   query.Page > 1,
	}, nil
}

// UpdateComment обновляет текст комментария
// Редактировать может только автор; комментарий помечается как измененный
func (s *CommentService) UpdateComment(ctx context.Context, userID uuid.UUID, commentID string, req *entity.UpdateCommentRequest) (*entity.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if n := utf8.RuneCountInString(content); n < minCommentLength || n > maxCommentLength {
		return nil, ErrInvalidContent
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	if comment.UserID != userID.String() {
		return nil, ErrForbidden
	}

	now := time.Now()
	comment.Content = content
	comment.IsEdited = true
	comment.EditedAt = &now
	comment.UpdatedAt = now

	if err := s.commentRepo.UpdateContent(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

// DeleteComment удаляет комментарий
// Разрешено автору и администратору
func (s *CommentService) DeleteComment(ctx context.Context, userID uuid.UUID, role entity.UserRole, commentID string) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to get comment: %w", err)
	}

	if comment.UserID != userID.String() && role != entity.RoleAdmin {
		return ErrForbidden
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

// ToggleLike переключает лайк пользователя на комментарии
func (s *CommentService) ToggleLike(ctx context.Context, userID uuid.UUID, commentID string) (*entity.Comment, error) {
	return s.toggleReaction(ctx, userID, commentID, entity.ReactionLike)
}

// ToggleDislike переключает дизлайк пользователя на комментарии
func (s *CommentService) ToggleDislike(ctx context.Context, userID uuid.UUID, commentID string) (*entity.Comment, error) {
	return s.toggleReaction(ctx, userID, commentID, entity.ReactionDislike)
}

// toggleReaction реализует единственную реакцию пользователя на комментарий
// Повторная та же реакция снимает ее, противоположная - заменяет
func (s *CommentService) toggleReaction(ctx context.Context, userID uuid.UUID, commentID string, reaction entity.Reaction) (*entity.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	if comment.Reactions == nil {
		comment.Reactions = map[string]entity.Reaction{}
	}

	key := userID.String()
	if comment.Reactions[key] == reaction {
		delete(comment.Reactions, key)
	} else {
		comment.Reactions[key] = reaction
	}

	// Счетчики пересчитываются из карты реакций и пишутся одним $set
	likes, dislikes := 0, 0
	for _, r := range comment.Reactions {
		switch r {
		case entity.ReactionLike:
			likes++
		case entity.ReactionDislike:
			dislikes++
		}
	}
	comment.Likes = likes
	comment.Dislikes = dislikes

	if err := s.commentRepo.UpdateReactions(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to update reactions: %w", err)
	}

	return comment, nil
}
