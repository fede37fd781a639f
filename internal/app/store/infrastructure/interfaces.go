package infrastructure

import (
	"context"
	"time"

	"bramblemart/internal/app/store/entity"
)

// MessagePublisher абстракция над Kafka producer
// Позволяет подменять отправку событий в тестах
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// CategoryCache абстракция над Redis кешем списка категорий
type CategoryCache interface {
	SetCategories(ctx context.Context, categories []entity.Category, ttl time.Duration) error
	GetCategories(ctx context.Context) ([]entity.Category, error)
	DeleteCategories(ctx context.Context) error
}
