package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StringList хранит список строк в колонке jsonb
// Используется для тегов и упорядоченного списка изображений товара
type StringList []string

// Value сериализует список в JSON для записи в PostgreSQL
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan читает JSON из PostgreSQL обратно в список
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// Category представляет категорию товаров
type Category struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName указывает имя таблицы для GORM
func (Category) TableName() string {
	return "categories"
}

// Product представляет товар в каталоге
// SellingPrice, AverageRating, TotalRatings и TrendingScore - производные поля:
// они пересчитываются сервисным слоем и никогда не принимаются из запроса
type Product struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	SKU           string     `json:"sku" gorm:"type:varchar(64);not null;uniqueIndex"`
	Name          string     `json:"name" gorm:"type:varchar(200);not null"`
	Description   string     `json:"description" gorm:"type:text"`
	CostPrice     float64    `json:"cost_price" gorm:"type:decimal(10,2);not null;check:cost_price >= 0"`
	Discount      float64    `json:"discount" gorm:"type:decimal(10,2);not null;default:0;check:discount >= 0"`
	SellingPrice  float64    `json:"selling_price" gorm:"type:decimal(10,2);not null"` // Всегда = CostPrice - Discount
	Stock         int        `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	Tags          StringList `json:"tags" gorm:"type:jsonb"`
	Images        StringList `json:"images" gorm:"type:jsonb"` // Упорядоченный список URL
	AverageRating float64    `json:"average_rating" gorm:"type:decimal(2,1);not null;default:0"`
	TotalRatings  int        `json:"total_ratings" gorm:"not null;default:0"`
	TrendingScore float64    `json:"trending_score" gorm:"not null;default:0"` // Пересчитывается воркером по заказам
	IsActive      bool       `json:"is_active" gorm:"not null;default:true"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	Categories    []Category `json:"categories" gorm:"many2many:product_categories;constraint:OnDelete:CASCADE"`
}

// TableName указывает имя таблицы для GORM
func (Product) TableName() string {
	return "products"
}

// Rating представляет оценку товара пользователем
// Инвариант: ровно одна оценка на пару (user, product)
type Rating struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_ratings_user_product"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_ratings_user_product;index"`
	Value     int       `json:"value" gorm:"not null;check:value >= 1 AND value <= 5"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы для GORM
func (Rating) TableName() string {
	return "ratings"
}

// RatingAggregate содержит агрегированные значения оценок товара
// Вычисляется одним запросом по всем строкам ratings для товара
type RatingAggregate struct {
	Average float64
	Count   int
}

// Cart представляет корзину пользователя (ровно одна на пользователя)
// TotalAmount и ItemCount - производные от Items, пересчитываются при каждой мутации
type Cart struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	TotalAmount float64    `json:"total_amount" gorm:"type:decimal(10,2);not null;default:0"`
	ItemCount   int        `json:"item_count" gorm:"not null;default:0"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	Items       []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName указывает имя таблицы для GORM
func (Cart) TableName() string {
	return "carts"
}

// CartItem представляет позицию в корзине
// Name/Price/Image/SKU - снимок товара на момент добавления,
// последующие изменения каталога не влияют на корзину
type CartItem struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CartID    uuid.UUID `json:"cart_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_product"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null"`
	Price     float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	Image     string    `json:"image" gorm:"type:text"`
	SKU       string    `json:"sku" gorm:"type:varchar(64);not null"`
	Quantity  int       `json:"quantity" gorm:"not null;check:quantity > 0"`
}

// TableName указывает имя таблицы для GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// OrderStatus представляет статусы заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // Ожидает обработки
	OrderStatusProcessing OrderStatus = "processing" // В обработке
	OrderStatusShipped    OrderStatus = "shipped"    // Отправлен
	OrderStatusDelivered  OrderStatus = "delivered"  // Доставлен
	OrderStatusCancelled  OrderStatus = "cancelled"  // Отменен
)

// Order представляет заказ - неизменяемый снимок корзины на момент оформления
type Order struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Status      OrderStatus `json:"status" gorm:"type:varchar(50);not null;default:'pending'"`
	TotalAmount float64     `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	ItemCount   int         `json:"item_count" gorm:"not null"`
	ShipName    string      `json:"ship_name" gorm:"type:varchar(60);not null"`
	ShipPhone   string      `json:"ship_phone" gorm:"type:varchar(20);not null"`
	ShipStreet  string      `json:"ship_street" gorm:"type:varchar(200);not null"`
	ShipCity    string      `json:"ship_city" gorm:"type:varchar(100);not null"`
	ShipZip     string      `json:"ship_zip" gorm:"type:varchar(20);not null"`
	ShipCountry string      `json:"ship_country" gorm:"type:varchar(100);not null"`
	CreatedAt   time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
	Items       []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName указывает имя таблицы для GORM
func (Order) TableName() string {
	return "orders"
}

// OrderItem представляет позицию в заказе
// Цена и название фиксируются на момент оформления заказа
type OrderItem struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null"`
	SKU       string    `json:"sku" gorm:"type:varchar(64);not null"`
	Image     string    `json:"image" gorm:"type:text"`
	UnitPrice float64   `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Quantity  int       `json:"quantity" gorm:"not null;check:quantity > 0"`
}

// TableName указывает имя таблицы для GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// UserRole представляет роль пользователя
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User представляет пользователя магазина
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Name         string    `json:"name" gorm:"type:varchar(60);not null"`
	Phone        string    `json:"phone" gorm:"type:varchar(20)"`
	Role         UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	ShipStreet   string    `json:"ship_street" gorm:"type:varchar(200)"`
	ShipCity     string    `json:"ship_city" gorm:"type:varchar(100)"`
	ShipZip      string    `json:"ship_zip" gorm:"type:varchar(20)"`
	ShipCountry  string    `json:"ship_country" gorm:"type:varchar(100)"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// Reaction представляет реакцию пользователя на комментарий
// Одно значение на пользователя исключает состояние "и лайк и дизлайк"
type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// Comment представляет комментарий к товару (хранится в MongoDB)
// Инвариант: комментарий создается только при наличии оценки той же пары (user, product)
type Comment struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ProductID string              `json:"product_id" bson:"product_id"` // UUID товара из PostgreSQL
	UserID    string              `json:"user_id" bson:"user_id"`       // UUID пользователя
	UserName  string              `json:"user_name" bson:"user_name"`   // Снимок имени на момент создания
	Content   string              `json:"content" bson:"content"`
	IsEdited  bool                `json:"is_edited" bson:"is_edited"`
	EditedAt  *time.Time          `json:"edited_at,omitempty" bson:"edited_at,omitempty"`
	Reactions map[string]Reaction `json:"-" bson:"reactions"` // userID -> like|dislike
	Likes     int                 `json:"likes" bson:"likes"`
	Dislikes  int                 `json:"dislikes" bson:"dislikes"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" bson:"updated_at"`
}

// ProductEvent представляет событие изменения товара для Kafka
type ProductEvent struct {
	EventType    string    `json:"event_type"` // PRODUCT_UPDATED
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	SellingPrice float64   `json:"selling_price"`
	Timestamp    time.Time `json:"timestamp"`
}

// RatingEvent представляет событие оценки товара для Kafka
type RatingEvent struct {
	EventType     string    `json:"event_type"` // RATING_SUBMITTED, RATING_DELETED
	ProductID     uuid.UUID `json:"product_id"`
	UserID        uuid.UUID `json:"user_id"`
	Value         int       `json:"value,omitempty"`
	AverageRating float64   `json:"average_rating"`
	TotalRatings  int       `json:"total_ratings"`
	Timestamp     time.Time `json:"timestamp"`
}

// OrderEvent представляет событие изменения заказа для Kafka
type OrderEvent struct {
	EventType   string      `json:"event_type"` // ORDER_CREATED, ORDER_UPDATED
	OrderID     uuid.UUID   `json:"order_id"`
	UserID      uuid.UUID   `json:"user_id"`
	TotalAmount float64     `json:"total_amount"`
	Status      OrderStatus `json:"status"`
	ItemsCount  int         `json:"items_count"`
	Timestamp   time.Time   `json:"timestamp"`
}
