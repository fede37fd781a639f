package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/store/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TokenResponse), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, req *entity.RefreshRequest) (*entity.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TokenResponse), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func performJSONRequest(router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(method, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterHandler_Success(t *testing.T) {
	router := setupTestRouter()
	mockService := new(MockAuthService)
	authHandler := NewAuthHandler(mockService)

	user := &entity.User{ID: uuid.New(), Email: "marta@example.com", Name: "Marta", Role: entity.RoleUser}
	mockService.On("Register", mock.Anything, mock.AnythingOfType("*entity.RegisterRequest")).Return(user, nil)

	router.POST("/api/auth/register", authHandler.Register)

	w := performJSONRequest(router, http.MethodPost, "/api/auth/register", entity.RegisterRequest{
		Email:    "marta@example.com",
		Password: "secret123",
		Name:     "Marta",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRegisterHandler_ValidationCollectsAllFields(t *testing.T) {
	router := setupTestRouter()
	mockService := new(MockAuthService)
	authHandler := NewAuthHandler(mockService)

	router.POST("/api/auth/register", authHandler.Register)

	// Невалидный email, короткий пароль, пустое имя - все три поля в ответе
	w := performJSONRequest(router, http.MethodPost, "/api/auth/register", entity.RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
		Name:     "",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response entity.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Fields, 3)
	mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegisterHandler_EmailTaken(t *testing.T) {
	router := setupTestRouter()
	mockService := new(MockAuthService)
	authHandler := NewAuthHandler(mockService)

	mockService.On("Register", mock.Anything, mock.Anything).Return(nil, service.ErrEmailTaken)

	router.POST("/api/auth/register", authHandler.Register)

	w := performJSONRequest(router, http.MethodPost, "/api/auth/register", entity.RegisterRequest{
		Email:    "taken@example.com",
		Password: "secret123",
		Name:     "Marta",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	router := setupTestRouter()
	mockService := new(MockAuthService)
	authHandler := NewAuthHandler(mockService)

	mockService.On("Login", mock.Anything, mock.Anything).Return(nil, service.ErrInvalidCredentials)

	router.POST("/api/auth/login", authHandler.Login)

	w := performJSONRequest(router, http.MethodPost, "/api/auth/login", entity.LoginRequest{
		Email:    "marta@example.com",
		Password: "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshHandler_InvalidToken(t *testing.T) {
	router := setupTestRouter()
	mockService := new(MockAuthService)
	authHandler := NewAuthHandler(mockService)

	mockService.On("Refresh", mock.Anything, mock.Anything).Return(nil, service.ErrInvalidRefreshToken)

	router.POST("/api/auth/refresh", authHandler.Refresh)

	w := performJSONRequest(router, http.MethodPost, "/api/auth/refresh", entity.RefreshRequest{
		RefreshToken: "stolen-token",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutAllHandler_Unauthorized(t *testing.T) {
	router := setupTestRouter()
	mockService := new(MockAuthService)
	authHandler := NewAuthHandler(mockService)

	// user_id не установлен в контексте: middleware не пройден
	router.POST("/api/auth/logout-all", authHandler.LogoutAll)

	w := performJSONRequest(router, http.MethodPost, "/api/auth/logout-all", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "LogoutAll", mock.Anything, mock.Anything)
}
