package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

// PostgresUsersRepository 用户Repository实现（强类型版本）
// 实现UsersRepository接口，使用domain.User领域模型
type PostgresUsersRepository struct {
	db *sql.DB
}

// NewPostgresUsersRepository 创建用户Repository
func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

// 确保实现了接口
var _ UsersRepository = (*PostgresUsersRepository)(nil)

const userColumns = `
	user_id::text,
	email,
	password_hash,
	COALESCE(full_name, ''),
	role,
	status,
	created_at`

// GetUser 根据user_id获取用户
func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE user_id = $1`, userColumns)

	return r.scanUser(r.db.QueryRowContext(ctx, query, userID))
}

// GetUserByEmail 根据邮箱获取用户（不区分大小写）
func (r *PostgresUsersRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE LOWER(email) = LOWER($1)`, userColumns)

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresUsersRepository) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.UserID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewError(ErrNotFound, "user not found", err)
		}
		return nil, NewError(ErrDatabase, "failed to get user", err)
	}
	return &user, nil
}
