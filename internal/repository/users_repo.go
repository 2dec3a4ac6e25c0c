package repository

import (
	"context"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

// UsersRepository 用户Repository接口
// 使用强类型领域模型，不使用map[string]any
// 口令校验（bcrypt比对）在Service层做，本层只取行
type UsersRepository interface {
	// GetUser 根据user_id获取用户
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// GetUserByEmail 根据邮箱获取用户（不区分大小写，用于登录）
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
