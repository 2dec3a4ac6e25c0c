package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
	"github.com/cayden6ix/certidoes-app-sub002/internal/repository"
	"github.com/cayden6ix/certidoes-app-sub002/internal/store"
)

var (
	// ErrInvalidCredentials 登录失败（不区分用户不存在与口令错误）
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserDisabled 账号已停用
	ErrUserDisabled = errors.New("user account is disabled")
)

const refreshKeyPrefix = "refresh:"

// AuthService 登录/刷新/登出
// 刷新令牌存Redis（key含jti），一次性使用，刷新即轮换
type AuthService struct {
	users      repository.UsersRepository
	tokens     *TokenManager
	kv         store.KV
	logger     *zap.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService 创建认证服务
func NewAuthService(users repository.UsersRepository, tokens *TokenManager, kv store.KV, logger *zap.Logger, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		kv:         kv,
		logger:     logger,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// UserInfo 登录响应里的用户信息
type UserInfo struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
}

// LoginResult 登录/刷新的令牌对
type LoginResult struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // access token有效期（秒）
	User         UserInfo `json:"user"`
}

// Login 邮箱+口令登录
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if repository.CodeOf(err) == repository.ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Status != "active" {
		return nil, ErrUserDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User logged in",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role))
	return result, nil
}

// Refresh 用刷新令牌换新令牌对（旧刷新令牌立即作废）
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.Validate(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	key := refreshKey(claims.UserID, claims.ID)
	if _, err := s.kv.Get(ctx, key); err != nil {
		if errors.Is(err, store.ErrMiss) {
			// 已轮换或已登出
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to check refresh token: %w", err)
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if repository.CodeOf(err) == repository.ErrNotFound {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Status != "active" {
		return nil, ErrUserDisabled
	}

	if err := s.kv.Del(ctx, key); err != nil {
		s.logger.Warn("Failed to revoke rotated refresh token",
			zap.String("user_id", claims.UserID),
			zap.Error(err))
	}
	return s.issueTokens(ctx, user)
}

// Logout 作废一个刷新令牌（幂等：无效/过期令牌同样返回成功）
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Validate(refreshToken)
	if err != nil {
		return nil
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil
	}
	if err := s.kv.Del(ctx, refreshKey(claims.UserID, claims.ID)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// LogoutAll 作废用户的全部刷新令牌（改密/封号场景）
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}
	keys, err := s.kv.ScanKeys(ctx, refreshKeyPrefix+userID+":*")
	if err != nil {
		return fmt.Errorf("failed to scan refresh tokens: %w", err)
	}
	if err := s.kv.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	s.logger.Info("All sessions revoked", zap.String("user_id", userID), zap.Int("count", len(keys)))
	return nil
}

// CurrentUser 按id取用户信息（/auth/me）
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*UserInfo, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserInfo{
		UserID:   user.UserID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	}, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*LoginResult, error) {
	accessToken, _, err := s.tokens.Generate(user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refreshToken, jti, err := s.tokens.Generate(user, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	key := refreshKey(user.UserID, jti)
	if err := s.kv.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), s.refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User: UserInfo{
			UserID:   user.UserID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
		},
	}, nil
}

func refreshKey(userID, jti string) string {
	return refreshKeyPrefix + userID + ":" + jti
}
