package repository

import (
	"context"
	"errors"
	"time"

	"bramblemart/internal/app/store/entity"

	"github.com/google/uuid"
)

var (
	// Стандартные ошибки репозиториев для обработки в service layer
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCartNotFound      = errors.New("cart not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrRatingNotFound    = errors.New("rating not found")
	ErrTokenNotFound     = errors.New("refresh token not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Category, error)
	GetAll(ctx context.Context) ([]entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	ReplaceCategories(ctx context.Context, product *entity.Product, categories []entity.Category) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	// List применяет фильтры, сортировку и пагинацию из query
	// Возвращает страницу товаров и общее количество подходящих строк
	List(ctx context.Context, query *entity.ProductQuery) ([]entity.Product, int64, error)
	// UpdateTrendingScores перезаписывает trending_score всех товаров одной транзакцией
	UpdateTrendingScores(ctx context.Context, scores map[uuid.UUID]float64) error
}

type RatingRepository interface {
	// Upsert сохраняет единственную оценку пары (user, product) и в той же
	// транзакции пересчитывает average_rating/total_ratings товара
	Upsert(ctx context.Context, rating *entity.Rating) (*entity.RatingAggregate, error)
	// Delete удаляет оценку (идемпотентно) и пересчитывает агрегаты товара
	Delete(ctx context.Context, userID, productID uuid.UUID) (*entity.RatingAggregate, error)
	Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Distribution(ctx context.Context, productID uuid.UUID) (map[int]int64, error)
}

type CartRepository interface {
	// GetOrCreate возвращает корзину пользователя, создавая пустую при отсутствии
	// Использует атомарный upsert чтобы исключить гонку read-then-insert
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*entity.Cart, error)
	// Save перезаписывает позиции и итоги корзины одной транзакцией
	Save(ctx context.Context, cart *entity.Cart) error
}

type OrderRepository interface {
	// PlaceOrder атомарно: списывает остатки, сохраняет заказ с позициями
	// и очищает корзину. При нехватке остатка возвращает ErrInsufficientStock
	PlaceOrder(ctx context.Context, order *entity.Order, cartID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Order, error)
	GetByStatus(ctx context.Context, status entity.OrderStatus) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) error
	// UnitsSoldSince возвращает продажи по товарам начиная с указанного момента
	UnitsSoldSince(ctx context.Context, since time.Time) (map[uuid.UUID]int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	GetByID(ctx context.Context, id string) (*entity.Comment, error)
	UpdateContent(ctx context.Context, comment *entity.Comment) error
	UpdateReactions(ctx context.Context, comment *entity.Comment) error
	Delete(ctx context.Context, id string) error
	ListByProduct(ctx context.Context, query *entity.CommentQuery) ([]entity.Comment, int64, error)
}

type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (uuid.UUID, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
}
