package service

import (
	"context"
	"errors"
	"testing"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/repository"
	"bramblemart/internal/app/store/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRate_Success(t *testing.T) {
	ratingRepo := new(mocks.MockRatingRepository)
	productRepo := new(mocks.MockProductRepository)
	kafkaProducer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := NewRatingService(ratingRepo, productRepo, kafkaProducer)

	ctx := context.Background()
	userID := uuid.New()
	product := activeProduct(5)

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	ratingRepo.On("Upsert", ctx, mock.AnythingOfType("*entity.Rating")).
		Return(&entity.RatingAggregate{Average: 5.0, Count: 1}, nil)
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	agg, err := service.Rate(ctx, userID, product.ID, 5)

	assert.NoError(t, err)
	assert.Equal(t, 5.0, agg.Average)
	assert.Equal(t, 1, agg.Count)
	assert.Len(t, kafkaProducer.Messages, 1)
}

func TestRate_RepeatOverwritesValue(t *testing.T) {
	ratingRepo := new(mocks.MockRatingRepository)
	productRepo := new(mocks.MockProductRepository)
	kafkaProducer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := NewRatingService(ratingRepo, productRepo, kafkaProducer)

	ctx := context.Background()
	userID := uuid.New()
	product := activeProduct(5)

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	// Та же пара (user, product): средняя меняется, количество - нет
	ratingRepo.On("Upsert", ctx, mock.Anything).
		Return(&entity.RatingAggregate{Average: 3.0, Count: 1}, nil).Once()
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	agg, err := service.Rate(ctx, userID, product.ID, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3.0, agg.Average)
	assert.Equal(t, 1, agg.Count)
}

func TestRate_InvalidValue(t *testing.T) {
	ratingRepo := new(mocks.MockRatingRepository)
	productRepo := new(mocks.MockProductRepository)
	kafkaProducer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := NewRatingService(ratingRepo, productRepo, kafkaProducer)

	ctx := context.Background()

	_, err := service.Rate(ctx, uuid.New(), uuid.New(), 0)
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = service.Rate(ctx, uuid.New(), uuid.New(), 6)
	assert.ErrorIs(t, err, ErrInvalidRating)

	productRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRate_ProductNotFound(t *testing.T) {
	ratingRepo := new(mocks.MockRatingRepository)
	productRepo := new(mocks.MockProductRepository)
	kafkaProducer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := NewRatingService(ratingRepo, productRepo, kafkaProducer)

	ctx := context.Background()
	productID := uuid.New()

	productRepo.On("GetByID", ctx, productID).Return(nil, repository.ErrProductNotFound)

	_, err := service.Rate(ctx, uuid.New(), productID, 4)

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRate_KafkaErrorIgnored(t *testing.T) {
	ratingRepo := new(mocks.MockRatingRepository)
	productRepo := new(mocks.MockProductRepository)
	kafkaProducer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := NewRatingService(ratingRepo, productRepo, kafkaProducer)

	ctx := context.Background()
	product := activeProduct(5)

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	ratingRepo.On("Upsert", ctx, mock.Anything).
		Return(&entity.RatingAggregate{Average: 4.0, Count: 2}, nil)
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(errors.New("kafka error"))

	agg, err := service.Rate(ctx, uuid.New(), product.ID, 4)

	assert.NoError(t, err)
	assert.NotNil(t, agg)
}

func TestDeleteRating_Success(t *testing.T) {
	ratingRepo := new(mocks.MockRatingRepository)
	productRepo := new(mocks.MockProductRepository)
	kafkaProducer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := NewRatingService(ratingRepo, productRepo, kafkaProducer)

	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	ratingRepo.On("Delete", ctx, userID, productID).
		Return(&entity.RatingAggregate{Average: 0, Count: 0}, nil)
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	agg, err := service.DeleteRating(ctx, userID, productID)

	assert.NoError(t, err)
	assert.Equal(t, 0.0, agg.Average)
	assert.Equal(t, 0, agg.Count)
}

func TestGetDistribution_FillsAllBuckets(t *testing.T) {
	ratingRepo := new(mocks.MockRatingRepository)
	productRepo := new(mocks.MockProductRepository)
	kafkaProducer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := NewRatingService(ratingRepo, productRepo, kafkaProducer)

	ctx := context.Background()
	product := activeProduct(5)

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	ratingRepo.On("Distribution", ctx, product.ID).
		Return(map[int]int64{1: 0, 2: 0, 3: 1, 4: 0, 5: 2}, nil)

	distribution, err := service.GetDistribution(ctx, product.ID)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), distribution.Total)
	assert.Equal(t, int64(2), distribution.Counts[5])
	assert.Equal(t, int64(0), distribution.Counts[1])
}
