package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/infrastructure"
	"bramblemart/internal/app/store/repository"
	"bramblemart/pkg/logger"
	"bramblemart/pkg/metrics"

	"github.com/google/uuid"
)

// RatingService обрабатывает оценки товаров
// Агрегаты товара (average_rating, total_ratings) пересчитываются
// репозиторием в одной транзакции с записью оценки
type RatingService struct {
	ratingRepo    repository.RatingRepository
	productRepo   repository.ProductRepository
	kafkaProducer infrastructure.MessagePublisher
}

// NewRatingService создает новый сервис оценок с внедрением зависимостей
func NewRatingService(
	ratingRepo repository.RatingRepository,
	productRepo repository.ProductRepository,
	kafkaProducer infrastructure.MessagePublisher,
) *RatingService {
	return &RatingService{
		ratingRepo:    ratingRepo,
		productRepo:   productRepo,
		kafkaProducer: kafkaProducer,
	}
}

// Rate сохраняет единственную оценку пары (user, product)
// Повторная оценка того же товара перезаписывает значение
func (s *RatingService) Rate(ctx context.Context, userID, productID uuid.UUID, value int) (*entity.RatingAggregate, error) {
	if value < 1 || value > 5 {
		return nil, ErrInvalidRating
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

	rating := &entity.Rating{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Value:     value,
	}

	agg, err := s.ratingRepo.Upsert(ctx, rating)
	if err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}

	metrics.RatingsSubmitted.Inc()
	metrics.RatingValues.Observe(float64(value))

	event := entity.RatingEvent{
		EventType:     "RATING_SUBMITTED",
		ProductID:     productID,
		UserID:        userID,
		Value:         value,
		AverageRating: agg.Average,
		TotalRatings:  agg.Count,
		Timestamp:     time.Now(),
	}
	if err := s.publishRatingEvent(ctx, event); err != nil {
		// Оценка уже сохранена, проблемы с Kafka не критичны
		logger.Warn().Err(err).Msg("failed to publish rating submitted event")
	}

	return agg, nil
}

// DeleteRating удаляет оценку пары (user, product)
// Идемпотентна; после удаления агрегаты товара пересчитаны заново
// Вместе с оценкой исчезает и право комментировать товар
func (s *RatingService) DeleteRating(ctx context.Context, userID, productID uuid.UUID) (*entity.RatingAggregate, error) {
	agg, err := s.ratingRepo.Delete(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete rating: %w", err)
	}

	event := entity.RatingEvent{
		EventType:     "RATING_DELETED",
		ProductID:     productID,
		UserID:        userID,
		AverageRating: agg.Average,
		TotalRatings:  agg.Count,
		Timestamp:     time.Now(),
	}
	if err := s.publishRatingEvent(ctx, event); err != nil {
		logger.Warn().Err(err).Msg("failed to publish rating deleted event")
	}

	return agg, nil
}

// GetDistribution возвращает количество оценок товара по звездам 1..5
func (s *RatingService) GetDistribution(ctx context.Context, productID uuid.UUID) (*entity.RatingDistribution, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	counts, err := s.ratingRepo.Distribution(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get distribution: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &entity.RatingDistribution{Counts: counts, Total: total}, nil
}

// publishRatingEvent отправляет событие об оценке в Kafka
func (s *RatingService) publishRatingEvent(ctx context.Context, event entity.RatingEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal rating event: %w", err)
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.ProductID.String(), eventData); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}
