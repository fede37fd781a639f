package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bramblemart/internal/app/store/entity"
	"bramblemart/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type commentRepository struct {
	collection *mongo.Collection
}

// NewCommentRepository создает новый репозиторий комментариев
// Автоматически создает индексы по product_id и user_id для быстрой выборки
func NewCommentRepository(db *mongo.Database) CommentRepository {
	collection := db.Collection("comments")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("product_id_created_at_idx"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id_idx"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Индексы могут уже существовать, работу не прерываем
		logger.Warn().Err(err).Msg("failed to create comment indexes")
	}

	return &commentRepository{collection: collection}
}

// Create создает новый комментарий в MongoDB
func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	if comment.Reactions == nil {
		comment.Reactions = make(map[string]entity.Reaction)
	}

	result, err := r.collection.InsertOne(ctx, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		comment.ID = oid
	}

	return nil
}

// GetByID получает комментарий по ID
func (r *commentRepository) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrCommentNotFound
	}

	var comment entity.Comment
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return &comment, nil
}

// UpdateContent сохраняет новый текст комментария вместе с отметкой о правке
func (r *commentRepository) UpdateContent(ctx context.Context, comment *entity.Comment) error {
	comment.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"content":    comment.Content,
			"is_edited":  comment.IsEdited,
			"edited_at":  comment.EditedAt,
			"updated_at": comment.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": comment.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCommentNotFound
	}

	return nil
}

// UpdateReactions сохраняет карту реакций и производные счетчики
// Один документ обновляется атомарно, счетчики не могут разойтись с картой
func (r *commentRepository) UpdateReactions(ctx context.Context, comment *entity.Comment) error {
	update := bson.M{
		"$set": bson.M{
			"reactions":  comment.Reactions,
			"likes":      comment.Likes,
			"dislikes":   comment.Dislikes,
			"updated_at": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": comment.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update comment reactions: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCommentNotFound
	}

	return nil
}

// Delete удаляет комментарий
func (r *commentRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrCommentNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCommentNotFound
	}

	return nil
}

// ListByProduct возвращает страницу комментариев товара и их общее количество
// Поддерживает сортировку по дате создания и по количеству лайков
func (r *commentRepository) ListByProduct(ctx context.Context, query *entity.CommentQuery) ([]entity.Comment, int64, error) {
	filter := bson.M{"product_id": query.ProductID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	sortField := "created_at"
	if query.SortBy == "likes" {
		sortField = "likes"
	}
	sortDir := -1
	if query.SortOrder == "asc" {
		sortDir = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: sortDir}, {Key: "_id", Value: 1}}).
		SetSkip(int64((query.Page - 1) * query.Limit)).
		SetLimit(int64(query.Limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find comments: %w", err)
	}
	defer cursor.Close(ctx)

	var comments []entity.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, 0, fmt.Errorf("failed to decode comments: %w", err)
	}

	return comments, total, nil
}
