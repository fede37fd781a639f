package service

import (
	"context"
	"strings"
	"testing"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newCommentService() (*CommentService, *mocks.MockCommentRepository, *mocks.MockRatingRepository, *mocks.MockProductRepository, *mocks.MockUserRepository) {
	commentRepo := new(mocks.MockCommentRepository)
	ratingRepo := new(mocks.MockRatingRepository)
	productRepo := new(mocks.MockProductRepository)
	userRepo := new(mocks.MockUserRepository)
	return NewCommentService(commentRepo, ratingRepo, productRepo, userRepo), commentRepo, ratingRepo, productRepo, userRepo
}

func TestCreateComment_Success(t *testing.T) {
	service, commentRepo, ratingRepo, productRepo, userRepo := newCommentService()

	ctx := context.Background()
	userID := uuid.New()
	product := activeProduct(5)
	user := &entity.User{ID: userID, Name: "Marta", Email: "marta@example.com"}

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	ratingRepo.On("Exists", ctx, userID, product.ID).Return(true, nil)
	userRepo.On("GetByID", ctx, userID).Return(user, nil)
	commentRepo.On("Create", ctx, mock.AnythingOfType("*entity.Comment")).Return(nil).Run(func(args mock.Arguments) {
		comment := args.Get(1).(*entity.Comment)
		comment.ID = primitive.NewObjectID()
	})

	comment, err := service.CreateComment(ctx, userID, &entity.CreateCommentRequest{
		ProductID: product.ID.String(),
		Content:   "  Отличный джем!  ",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Отличный джем!", comment.Content)
	assert.Equal(t, user.Name, comment.UserName)
	assert.False(t, comment.IsEdited)
}

func TestCreateComment_RequiresRating(t *testing.T) {
	service, commentRepo, ratingRepo, productRepo, _ := newCommentService()

	ctx := context.Background()
	userID := uuid.New()
	product := activeProduct(5)

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	ratingRepo.On("Exists", ctx, userID, product.ID).Return(false, nil)

	comment, err := service.CreateComment(ctx, userID, &entity.CreateCommentRequest{
		ProductID: product.ID.String(),
		Content:   "Хочу высказаться",
	})

	assert.ErrorIs(t, err, ErrRatingRequired)
	assert.Nil(t, comment)
	commentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateComment_ContentTooLong(t *testing.T) {
	service, _, _, _, _ := newCommentService()

	ctx := context.Background()

	_, err := service.CreateComment(ctx, uuid.New(), &entity.CreateCommentRequest{
		ProductID: uuid.New().String(),
		Content:   strings.Repeat("я", 1001),
	})

	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestCreateComment_MultibyteContentWithinLimit(t *testing.T) {
	service, commentRepo, ratingRepo, productRepo, userRepo := newCommentService()

	ctx := context.Background()
	userID := uuid.New()
	product := activeProduct(5)
	user := &entity.User{ID: userID, Name: "Marta", Email: "marta@example.com"}

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	ratingRepo.On("Exists", ctx, userID, product.ID).Return(true, nil)
	userRepo.On("GetByID", ctx, userID).Return(user, nil)
	commentRepo.On("Create", ctx, mock.AnythingOfType("*entity.Comment")).Return(nil)

	// 600 кириллических символов занимают 1200 байт, лимит считается в символах
	comment, err := service.CreateComment(ctx, userID, &entity.CreateCommentRequest{
		ProductID: product.ID.String(),
		Content:   strings.Repeat("я", 600),
	})

	assert.NoError(t, err)
	assert.Equal(t, 600, len([]rune(comment.Content)))
}

func TestCreateComment_BlankContent(t *testing.T) {
	service, _, _, _, _ := newCommentService()

	ctx := context.Background()

	_, err := service.CreateComment(ctx, uuid.New(), &entity.CreateCommentRequest{
		ProductID: uuid.New().String(),
		Content:   "   ",
	})

	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestUpdateComment_OnlyAuthor(t *testing.T) {
	service, commentRepo, _, _, _ := newCommentService()

	ctx := context.Background()
	author := uuid.New()
	stranger := uuid.New()
	comment := &entity.Comment{
		ID:      primitive.NewObjectID(),
		UserID:  author.String(),
		Content: "Первая версия",
	}

	commentRepo.On("GetByID", ctx, comment.ID.Hex()).Return(comment, nil)

	result, err := service.UpdateComment(ctx, stranger, comment.ID.Hex(), &entity.UpdateCommentRequest{Content: "Чужая правка"})

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, result)
}

func TestUpdateComment_MarksEdited(t *testing.T) {
	service, commentRepo, _, _, _ := newCommentService()

	ctx := context.Background()
	author := uuid.New()
	comment := &entity.Comment{
		ID:      primitive.NewObjectID(),
		UserID:  author.String(),
		Content: "Первая версия",
	}

	commentRepo.On("GetByID", ctx, comment.ID.Hex()).Return(comment, nil)
	commentRepo.On("UpdateContent", ctx, comment).Return(nil)

	result, err := service.UpdateComment(ctx, author, comment.ID.Hex(), &entity.UpdateCommentRequest{Content: "Вторая версия"})

	assert.NoError(t, err)
	assert.Equal(t, "Вторая версия", result.Content)
	assert.True(t, result.IsEdited)
	assert.NotNil(t, result.EditedAt)
}

func TestDeleteComment_AdminCanDeleteAny(t *testing.T) {
	service, commentRepo, _, _, _ := newCommentService()

	ctx := context.Background()
	admin := uuid.New()
	comment := &entity.Comment{ID: primitive.NewObjectID(), UserID: uuid.New().String()}

	commentRepo.On("GetByID", ctx, comment.ID.Hex()).Return(comment, nil)
	commentRepo.On("Delete", ctx, comment.ID.Hex()).Return(nil)

	err := service.DeleteComment(ctx, admin, entity.RoleAdmin, comment.ID.Hex())

	assert.NoError(t, err)
}

func TestDeleteComment_StrangerForbidden(t *testing.T) {
	service, commentRepo, _, _, _ := newCommentService()

	ctx := context.Background()
	comment := &entity.Comment{ID: primitive.NewObjectID(), UserID: uuid.New().String()}

	commentRepo.On("GetByID", ctx, comment.ID.Hex()).Return(comment, nil)

	err := service.DeleteComment(ctx, uuid.New(), entity.RoleUser, comment.ID.Hex())

	assert.ErrorIs(t, err, ErrForbidden)
	commentRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestToggleReaction_LikeThenDislike(t *testing.T) {
	service, commentRepo, _, _, _ := newCommentService()

	ctx := context.Background()
	userID := uuid.New()
	comment := &entity.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    uuid.New().String(),
		Reactions: map[string]entity.Reaction{},
	}

	commentRepo.On("GetByID", ctx, comment.ID.Hex()).Return(comment, nil)
	commentRepo.On("UpdateReactions", ctx, comment).Return(nil)

	result, err := service.ToggleLike(ctx, userID, comment.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Likes)
	assert.Equal(t, 0, result.Dislikes)

	// Дизлайк заменяет лайк, пользователь не может держать оба
	result, err = service.ToggleDislike(ctx, userID, comment.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, 0, result.Likes)
	assert.Equal(t, 1, result.Dislikes)
}

func TestToggleReaction_RepeatRemovesReaction(t *testing.T) {
	service, commentRepo, _, _, _ := newCommentService()

	ctx := context.Background()
	userID := uuid.New()
	comment := &entity.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    uuid.New().String(),
		Reactions: map[string]entity.Reaction{userID.String(): entity.ReactionLike},
		Likes:     1,
	}

	commentRepo.On("GetByID", ctx, comment.ID.Hex()).Return(comment, nil)
	commentRepo.On("UpdateReactions", ctx, comment).Return(nil)

	result, err := service.ToggleLike(ctx, userID, comment.ID.Hex())

	assert.NoError(t, err)
	assert.Equal(t, 0, result.Likes)
	assert.NotContains(t, result.Reactions, userID.String())
}

func TestGetComments_Pagination(t *testing.T) {
	service, commentRepo, _, _, _ := newCommentService()

	ctx := context.Background()
	productID := uuid.New().String()

	commentRepo.On("ListByProduct", ctx, mock.AnythingOfType("*entity.CommentQuery")).
		Return([]entity.Comment{{ID: primitive.NewObjectID()}}, int64(25), nil)

	page, err := service.GetComments(ctx, &entity.CommentQuery{ProductID: productID, Page: 2, Limit: 10})

	assert.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(25), page.TotalComments)
	assert.True(t, page.HasNextPage)
	assert.True(t, page.HasPrevPage)
}
