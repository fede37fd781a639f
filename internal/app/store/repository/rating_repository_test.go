package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"bramblemart/internal/app/store/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// RatingRepositoryTestSuite тестовый suite для PostgreSQL repository
type RatingRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  RatingRepository
	sqlDB *sql.DB
}

func TestRatingRepositorySuite(t *testing.T) {
	suite.Run(t, new(RatingRepositoryTestSuite))
}

func (s *RatingRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewRatingRepository(s.db)
}

func (s *RatingRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

// expectRecompute ожидает пересчет агрегатов внутри транзакции:
// выборку AVG/COUNT по ratings и запись результата на products
func (s *RatingRepositoryTestSuite) expectRecompute(avg float64, count int64) {
	rows := sqlmock.NewRows([]string{"avg", "count"}).AddRow(avg, count)

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(AVG(value), 0) as avg, COUNT(*) as count FROM "ratings"`)).
		WillReturnRows(rows)
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

// ===================== Upsert Tests =====================

func (s *RatingRepositoryTestSuite) TestUpsert_RecomputesAggregates() {
	ctx := context.Background()
	rating := &entity.Rating{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		Value:     3,
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "ratings"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Оценки 5 и 3 дают среднее 4.0 по двум строкам
	s.expectRecompute(4.0, 2)
	s.mock.ExpectCommit()

	// Act
	agg, err := s.repo.Upsert(ctx, rating)

	// Assert
	s.NoError(err)
	s.Equal(4.0, agg.Average)
	s.Equal(2, agg.Count)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *RatingRepositoryTestSuite) TestUpsert_RoundsAverageToOneDecimal() {
	ctx := context.Background()
	rating := &entity.Rating{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		Value:     4,
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "ratings"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 11/3 из базы превращается в 3.7 на товаре
	s.expectRecompute(3.6666666666666665, 3)
	s.mock.ExpectCommit()

	// Act
	agg, err := s.repo.Upsert(ctx, rating)

	// Assert
	s.NoError(err)
	s.Equal(3.7, agg.Average)
	s.Equal(3, agg.Count)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *RatingRepositoryTestSuite) TestUpsert_DBError() {
	ctx := context.Background()
	rating := &entity.Rating{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		Value:     5,
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "ratings"`)).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	// Act
	agg, err := s.repo.Upsert(ctx, rating)

	// Assert
	s.Error(err)
	s.Nil(agg)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== Delete Tests =====================

func (s *RatingRepositoryTestSuite) TestDelete_RecomputesToZero() {
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "ratings"`)).
		WithArgs(userID, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Последняя оценка удалена, агрегаты обнуляются
	s.expectRecompute(0, 0)
	s.mock.ExpectCommit()

	// Act
	agg, err := s.repo.Delete(ctx, userID, productID)

	// Assert
	s.NoError(err)
	s.Equal(0.0, agg.Average)
	s.Equal(0, agg.Count)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *RatingRepositoryTestSuite) TestDelete_IdempotentWhenMissing() {
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "ratings"`)).
		WithArgs(userID, productID).
		WillReturnResult(sqlmock.NewResult(0, 0)) // строки не было
	s.expectRecompute(4.5, 6)
	s.mock.ExpectCommit()

	// Act
	agg, err := s.repo.Delete(ctx, userID, productID)

	// Assert
	s.NoError(err)
	s.Equal(4.5, agg.Average)
	s.Equal(6, agg.Count)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== Distribution Tests =====================

func (s *RatingRepositoryTestSuite) TestDistribution_FillsEmptyBuckets() {
	ctx := context.Background()
	productID := uuid.New()

	rows := sqlmock.NewRows([]string{"value", "count"}).
		AddRow(5, int64(7)).
		AddRow(2, int64(1))

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT value, COUNT(*) as count FROM "ratings"`)).
		WithArgs(productID).
		WillReturnRows(rows)

	// Act
	counts, err := s.repo.Distribution(ctx, productID)

	// Assert
	s.NoError(err)
	s.Len(counts, 5)
	s.Equal(int64(7), counts[5])
	s.Equal(int64(1), counts[2])
	s.Equal(int64(0), counts[1])
	s.Equal(int64(0), counts[3])
	s.Equal(int64(0), counts[4])

	s.NoError(s.mock.ExpectationsWereMet())
}
