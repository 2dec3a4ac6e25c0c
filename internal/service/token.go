package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

const (
	// TokenTypeAccess 访问令牌（随请求走Authorization头）
	TokenTypeAccess = "access"
	// TokenTypeRefresh 刷新令牌（一次性，轮换使用）
	TokenTypeRefresh = "refresh"
)

var (
	// ErrTokenExpired 令牌已过期
	ErrTokenExpired = errors.New("token has expired")
	// ErrInvalidToken 令牌无效（签名/结构/类型不符）
	ErrInvalidToken = errors.New("invalid token")
)

// TokenClaims JWT声明
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager JWT签发与校验（HS256）
type TokenManager struct {
	signingKey []byte
	issuer     string
}

// NewTokenManager 创建TokenManager
func NewTokenManager(signingKey, issuer string) *TokenManager {
	return &TokenManager{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Generate 为用户签发一个令牌，返回(签名串, jti)
func (m *TokenManager) Generate(user *domain.User, tokenType string, ttl time.Duration) (string, string, error) {
	jti := uuid.NewString()
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		UserID:    user.UserID,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			ID:        jti,
		},
	})

	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// Validate 校验令牌并返回声明
// 只接受HMAC签名；过期返回ErrTokenExpired，其余问题返回ErrInvalidToken
func (m *TokenManager) Validate(tokenString string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return m.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
