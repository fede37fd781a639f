package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"bramblemart/internal/app/store/repository"
	"bramblemart/pkg/metrics"

	"github.com/google/uuid"
)

// Окно продаж для расчета трендового рейтинга
const trendingWindow = 30 * 24 * time.Hour

// TrendingServiceInterface определяет интерфейс пересчета трендового рейтинга
type TrendingServiceInterface interface {
	// RecomputeTrendingScores пересчитывает trending_score всех товаров
	RecomputeTrendingScores(ctx context.Context) error
}

// TrendingService пересчитывает трендовый рейтинг товаров по продажам
// Рейтинг товара равен количеству проданных единиц за последние 30 дней,
// отмененные заказы не учитываются
type TrendingService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
}

// NewTrendingService создает новый сервис трендового рейтинга
func NewTrendingService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository) *TrendingService {
	return &TrendingService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

// RecomputeTrendingScores пересчитывает trending_score всех товаров
// Товары без продаж в окне получают нулевой рейтинг
func (s *TrendingService) RecomputeTrendingScores(ctx context.Context) error {
	since := time.Now().Add(-trendingWindow)

	sold, err := s.orderRepo.UnitsSoldSince(ctx, since)
	if err != nil {
		metrics.WorkerTrendingUpdates.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to load sales: %w", err)
	}

	scores := make(map[uuid.UUID]float64, len(sold))
	for productID, units := range sold {
		scores[productID] = float64(units)
	}

	if err := s.productRepo.UpdateTrendingScores(ctx, scores); err != nil {
		metrics.WorkerTrendingUpdates.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to update trending scores: %w", err)
	}

	metrics.WorkerTrendingUpdates.WithLabelValues("success").Inc()

	log.Printf("Trending scores updated for %d products", len(scores))

	return nil
}
