package service

import (
	"context"
	"testing"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/repository"
	"bramblemart/internal/app/store/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestProcessOrderEvent_MovesPendingToProcessing(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	service := NewOrderProcessingService(orderRepo)

	ctx := context.Background()
	order := &entity.Order{ID: uuid.New(), Status: entity.OrderStatusPending}

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	orderRepo.On("UpdateStatus", ctx, order.ID, entity.OrderStatusProcessing).Return(nil)

	err := service.ProcessOrderEvent(ctx, &entity.OrderEvent{
		EventType: "ORDER_CREATED",
		OrderID:   order.ID,
	})

	assert.NoError(t, err)
	orderRepo.AssertExpectations(t)
}

func TestProcessOrderEvent_SkipsCancelledOrder(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	service := NewOrderProcessingService(orderRepo)

	ctx := context.Background()
	order := &entity.Order{ID: uuid.New(), Status: entity.OrderStatusCancelled}

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	err := service.ProcessOrderEvent(ctx, &entity.OrderEvent{
		EventType: "ORDER_CREATED",
		OrderID:   order.ID,
	})

	assert.NoError(t, err)
	orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessOrderEvent_MissingOrderIsNotAnError(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	service := NewOrderProcessingService(orderRepo)

	ctx := context.Background()
	orderID := uuid.New()

	orderRepo.On("GetByID", ctx, orderID).Return(nil, repository.ErrOrderNotFound)

	err := service.ProcessOrderEvent(ctx, &entity.OrderEvent{
		EventType: "ORDER_CREATED",
		OrderID:   orderID,
	})

	assert.NoError(t, err)
}

func TestProcessOrderEvent_IgnoresOrderUpdated(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	service := NewOrderProcessingService(orderRepo)

	ctx := context.Background()

	err := service.ProcessOrderEvent(ctx, &entity.OrderEvent{
		EventType: "ORDER_UPDATED",
		OrderID:   uuid.New(),
	})

	assert.NoError(t, err)
	orderRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestProcessOrderEvent_UnknownEventType(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	service := NewOrderProcessingService(orderRepo)

	ctx := context.Background()

	err := service.ProcessOrderEvent(ctx, &entity.OrderEvent{
		EventType: "SOMETHING_ELSE",
		OrderID:   uuid.New(),
	})

	assert.NoError(t, err)
	orderRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
