package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"bramblemart/internal/app/store/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OrderRepositoryTestSuite тестовый suite для PostgreSQL repository
type OrderRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  OrderRepository
	sqlDB *sql.DB
}

func TestOrderRepositorySuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryTestSuite))
}

func (s *OrderRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewOrderRepository(s.db)
}

func (s *OrderRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

// ===================== GetByID Tests =====================

func (s *OrderRepositoryTestSuite) TestGetByID_Success() {
	ctx := context.Background()
	orderID := uuid.New()
	userID := uuid.New()
	createdAt := time.Now()

	orderRows := sqlmock.NewRows([]string{"id", "user_id", "total_amount", "item_count", "status", "created_at"}).
		AddRow(orderID, userID, 42.5, 3, "pending", createdAt)

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE id = $1`)).
		WillReturnRows(orderRows)

	itemRows := sqlmock.NewRows([]string{"id", "order_id", "product_id", "name", "unit_price", "quantity"}).
		AddRow(uuid.New(), orderID, uuid.New(), "Blackberry Jam", 4.5, 2)

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_items" WHERE "order_items"."order_id" = $1`)).
		WithArgs(orderID).
		WillReturnRows(itemRows)

	// Act
	order, err := s.repo.GetByID(ctx, orderID)

	// Assert
	s.NoError(err)
	s.NotNil(order)
	s.Equal(orderID, order.ID)
	s.Equal(userID, order.UserID)
	s.Equal(42.5, order.TotalAmount)
	s.Equal(entity.OrderStatusPending, order.Status)
	s.Len(order.Items, 1)
	s.Equal("Blackberry Jam", order.Items[0].Name)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *OrderRepositoryTestSuite) TestGetByID_NotFound() {
	ctx := context.Background()
	orderID := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE id = $1`)).
		WillReturnError(gorm.ErrRecordNotFound)

	// Act
	order, err := s.repo.GetByID(ctx, orderID)

	// Assert
	s.ErrorIs(err, ErrOrderNotFound)
	s.Nil(order)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== UpdateStatus Tests =====================

func (s *OrderRepositoryTestSuite) TestUpdateStatus_Success() {
	ctx := context.Background()
	orderID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.UpdateStatus(ctx, orderID, entity.OrderStatusProcessing)

	// Assert
	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *OrderRepositoryTestSuite) TestUpdateStatus_NotFound() {
	ctx := context.Background()
	orderID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0)) // 0 rows affected
	s.mock.ExpectCommit()

	// Act
	err := s.repo.UpdateStatus(ctx, orderID, entity.OrderStatusProcessing)

	// Assert
	s.ErrorIs(err, ErrOrderNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *OrderRepositoryTestSuite) TestUpdateStatus_DBError() {
	ctx := context.Background()
	orderID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	// Act
	err := s.repo.UpdateStatus(ctx, orderID, entity.OrderStatusProcessing)

	// Assert
	s.Error(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== PlaceOrder Tests =====================

func (s *OrderRepositoryTestSuite) TestPlaceOrder_InsufficientStock() {
	ctx := context.Background()
	cartID := uuid.New()
	order := &entity.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Status: entity.OrderStatusPending,
		Items: []entity.OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), Quantity: 50, UnitPrice: 4.5},
		},
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0)) // stock < quantity
	s.mock.ExpectRollback()

	// Act
	err := s.repo.PlaceOrder(ctx, order, cartID)

	// Assert
	s.ErrorIs(err, ErrInsufficientStock)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== UnitsSoldSince Tests =====================

func (s *OrderRepositoryTestSuite) TestUnitsSoldSince_AggregatesByProduct() {
	ctx := context.Background()
	productA := uuid.New()
	productB := uuid.New()
	since := time.Now().Add(-30 * 24 * time.Hour)

	rows := sqlmock.NewRows([]string{"product_id", "units"}).
		AddRow(productA, int64(12)).
		AddRow(productB, int64(3))

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT order_items.product_id, SUM(order_items.quantity) as units FROM "order_items"`)).
		WillReturnRows(rows)

	// Act
	sales, err := s.repo.UnitsSoldSince(ctx, since)

	// Assert
	s.NoError(err)
	s.Len(sales, 2)
	s.Equal(int64(12), sales[productA])
	s.Equal(int64(3), sales[productB])

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *OrderRepositoryTestSuite) TestUnitsSoldSince_DBError() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT order_items.product_id, SUM(order_items.quantity) as units FROM "order_items"`)).
		WillReturnError(sql.ErrConnDone)

	// Act
	sales, err := s.repo.UnitsSoldSince(ctx, time.Now())

	// Assert
	s.Error(err)
	s.Nil(sales)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== NewOrderRepository Tests =====================

func TestNewOrderRepository(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	dialector := postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	// Act
	repo := NewOrderRepository(db)

	// Assert
	assert.NotNil(t, repo)
}
