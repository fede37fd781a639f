package util

import (
	"testing"
	"time"

	"bramblemart/internal/app/store/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager() *JWTManager {
	return NewJWTManager("test-secret", 15*time.Minute, 720*time.Hour)
}

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	// Arrange
	manager := newTestJWTManager()
	userID := uuid.New()

	// Act
	token, err := manager.GenerateAccessToken(userID, "marta@example.com", entity.RoleUser)
	require.NoError(t, err)

	claims, err := manager.ValidateToken(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "marta@example.com", claims.Email)
	assert.Equal(t, entity.RoleUser, claims.Role)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestValidateToken_ExpiredToken(t *testing.T) {
	// Arrange - менеджер с отрицательным временем жизни выдает уже истекший токен
	manager := NewJWTManager("test-secret", -time.Minute, 720*time.Hour)

	token, err := manager.GenerateAccessToken(uuid.New(), "marta@example.com", entity.RoleUser)
	require.NoError(t, err)

	// Act
	claims, err := manager.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	// Arrange
	manager := newTestJWTManager()
	otherManager := NewJWTManager("other-secret", 15*time.Minute, 720*time.Hour)

	token, err := manager.GenerateAccessToken(uuid.New(), "marta@example.com", entity.RoleUser)
	require.NoError(t, err)

	// Act
	claims, err := otherManager.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestValidateToken_Garbage(t *testing.T) {
	manager := newTestJWTManager()

	claims, err := manager.ValidateToken("not.a.token")

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	manager := newTestJWTManager()

	token1, err1 := manager.GenerateRefreshToken()
	token2, err2 := manager.GenerateRefreshToken()

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.NotEmpty(t, token1)
	assert.NotEqual(t, token1, token2)
}

func TestGenerateRefreshToken_IsOpaque(t *testing.T) {
	manager := newTestJWTManager()

	token, err := manager.GenerateRefreshToken()
	require.NoError(t, err)

	// Refresh токен не является JWT и не проходит валидацию access токена
	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}
