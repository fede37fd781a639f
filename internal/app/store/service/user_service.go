package service

import (
	"context"
	"errors"
	"fmt"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/repository"

	"github.com/google/uuid"
)

// UserService обрабатывает профили пользователей
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetProfile возвращает профиль пользователя
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateProfile обновляет профиль пользователя
// Пустые поля запроса не трогают существующие значения
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *entity.UpdateProfileRequest) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.ShipStreet != "" {
		user.ShipStreet = req.ShipStreet
	}
	if req.ShipCity != "" {
		user.ShipCity = req.ShipCity
	}
	if req.ShipZip != "" {
		user.ShipZip = req.ShipZip
	}
	if req.ShipCountry != "" {
		user.ShipCountry = req.ShipCountry
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
