package domain

import "time"

// User 后台用户领域模型（users 表）
// 登录用邮箱 + bcrypt口令哈希
type User struct {
	UserID       string    `db:"user_id"`       // UUID, PRIMARY KEY
	Email        string    `db:"email"`         // VARCHAR(255), NOT NULL, UNIQUE（存储时转小写）
	PasswordHash string    `db:"password_hash"` // TEXT, NOT NULL（bcrypt）
	FullName     string    `db:"full_name"`     // VARCHAR(200), nullable
	Role         string    `db:"role"`          // VARCHAR(50), NOT NULL, DEFAULT 'clerk'
	Status       string    `db:"status"`        // VARCHAR(20), NOT NULL, DEFAULT 'active'
	CreatedAt    time.Time `db:"created_at"`
}
