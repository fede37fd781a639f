package service

import (
	"context"
	"errors"
	"fmt"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/repository"
	"bramblemart/pkg/metrics"

	"github.com/google/uuid"
)

const (
	minLineQuantity = 1
	maxLineQuantity = 99
)

// CartService обрабатывает бизнес-логику корзины
// Корзина хранит снимки товаров: изменения каталога после добавления
// не влияют на цены уже лежащих позиций
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService создает новый сервис корзины с внедрением зависимостей
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart возвращает корзину пользователя, создавая пустую при отсутствии
// Отсутствие корзины никогда не считается ошибкой
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*entity.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return cart, nil
}

// AddItem добавляет товар в корзину или увеличивает количество существующей позиции
// Снимок name/price/image/sku берется из каталога в момент добавления
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*entity.Cart, error) {
	if quantity < minLineQuantity || quantity > maxLineQuantity {
		return nil, ErrInvalidQuantity
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

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	// Повторное добавление того же товара сливается в одну позицию
	newQuantity := quantity
	if existing := findLine(cart, productID); existing != nil {
		newQuantity = existing.Quantity + quantity
	}

	if newQuantity > maxLineQuantity {
		return nil, ErrInvalidQuantity
	}
	// Остаток проверяется против итогового количества позиции,
	// чтобы корзина не могла накопить больше доступного
	if product.Stock < newQuantity {
		return nil, ErrInsufficientStock
	}

	if existing := findLine(cart, productID); existing != nil {
		existing.Quantity = newQuantity
	} else {
		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}
		cart.Items = append(cart.Items, entity.CartItem{
			ID:        uuid.New(),
			CartID:    cart.ID,
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.SellingPrice,
			Image:     image,
			SKU:       product.SKU,
			Quantity:  quantity,
		})
	}

	recomputeTotals(cart)

	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	metrics.CartItemsAdded.Inc()

	return cart, nil
}

// SetItemQuantity устанавливает количество позиции
// Ноль и меньше удаляет позицию целиком
func (s *CartService) SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*entity.Cart, error) {
	if quantity > maxLineQuantity {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	if quantity <= 0 {
		return s.removeLine(ctx, cart, productID)
	}

	line := findLine(cart, productID)
	if line == nil {
		return nil, ErrCartItemNotFound
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product.Stock < quantity {
		return nil, ErrInsufficientStock
	}

	line.Quantity = quantity
	recomputeTotals(cart)

	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	return cart, nil
}

// RemoveItem удаляет позицию из корзины
// Идемпотентна: удаление отсутствующей позиции не ошибка
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*entity.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return s.removeLine(ctx, cart, productID)
}

// removeLine убирает позицию и пересчитывает итоги
func (s *CartService) removeLine(ctx context.Context, cart *entity.Cart, productID uuid.UUID) (*entity.Cart, error) {
	filtered := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			filtered = append(filtered, item)
		}
	}
	cart.Items = filtered

	recomputeTotals(cart)

	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	return cart, nil
}

// findLine находит позицию корзины по товару
func findLine(cart *entity.Cart, productID uuid.UUID) *entity.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			return &cart.Items[i]
		}
	}
	return nil
}

// recomputeTotals пересчитывает производные итоги из позиций
// Вызывается при каждой мутации: итоги никогда не расходятся с items
func recomputeTotals(cart *entity.Cart) {
	var total float64
	var count int
	for _, item := range cart.Items {
		total += item.Price * float64(item.Quantity)
		count += item.Quantity
	}
	cart.TotalAmount = total
	cart.ItemCount = count
}
