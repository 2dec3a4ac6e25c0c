package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		UserID: "user-1",
		Email:  "clerk@certidoes.local",
		Role:   "clerk",
		Status: "active",
	}
}

func TestTokenManager_GenerateAndValidate(t *testing.T) {
	manager := NewTokenManager("test-secret", "certidoes-api")

	signed, jti, err := manager.Generate(testUser(), TokenTypeAccess, time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)
	assert.NotEmpty(t, jti)

	claims, err := manager.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "clerk@certidoes.local", claims.Email)
	assert.Equal(t, "clerk", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "certidoes-api", claims.Issuer)
	assert.Equal(t, jti, claims.ID)
}

func TestTokenManager_UniqueJTI(t *testing.T) {
	manager := NewTokenManager("test-secret", "certidoes-api")

	_, jti1, err := manager.Generate(testUser(), TokenTypeRefresh, time.Minute)
	require.NoError(t, err)
	_, jti2, err := manager.Generate(testUser(), TokenTypeRefresh, time.Minute)
	require.NoError(t, err)

	assert.NotEqual(t, jti1, jti2)
}

func TestTokenManager_Expired(t *testing.T) {
	manager := NewTokenManager("test-secret", "certidoes-api")

	// Negative TTL produces an already expired token
	signed, _, err := manager.Generate(testUser(), TokenTypeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = manager.Validate(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManager_WrongKey(t *testing.T) {
	manager := NewTokenManager("test-secret", "certidoes-api")
	other := NewTokenManager("other-secret", "certidoes-api")

	signed, _, err := manager.Generate(testUser(), TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	_, err = other.Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Garbage(t *testing.T) {
	manager := NewTokenManager("test-secret", "certidoes-api")

	_, err := manager.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = manager.Validate("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_TokenTypeTravelsInClaims(t *testing.T) {
	manager := NewTokenManager("test-secret", "certidoes-api")

	signed, _, err := manager.Generate(testUser(), TokenTypeRefresh, time.Minute)
	require.NoError(t, err)

	claims, err := manager.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
}
