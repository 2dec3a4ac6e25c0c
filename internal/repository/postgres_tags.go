package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

// PostgresTagsRepository 标签Repository实现（强类型版本）
// 实现TagsRepository接口，使用domain.Tag领域模型
type PostgresTagsRepository struct {
	db *sql.DB
}

// NewPostgresTagsRepository 创建标签Repository
func NewPostgresTagsRepository(db *sql.DB) *PostgresTagsRepository {
	return &PostgresTagsRepository{db: db}
}

// 确保实现了接口
var _ TagsRepository = (*PostgresTagsRepository)(nil)

// GetTag 根据tag_id获取tag
func (r *PostgresTagsRepository) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	if tagID == "" {
		return nil, fmt.Errorf("tag_id is required")
	}

	query := `
		SELECT tag_id::text, tag_name, color
		FROM tags
		WHERE tag_id = $1`

	var tag domain.Tag
	var color sql.NullString
	err := r.db.QueryRowContext(ctx, query, tagID).Scan(&tag.TagID, &tag.TagName, &color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewError(ErrNotFound, "tag not found", err)
		}
		return nil, NewError(ErrDatabase, "failed to get tag", err)
	}
	if color.Valid {
		tag.Color = color.String
	}
	return &tag, nil
}

// ListTags 查询全部标签，按tag_name排序
func (r *PostgresTagsRepository) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	query := `
		SELECT tag_id::text, tag_name, color
		FROM tags
		ORDER BY tag_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, NewError(ErrDatabase, "failed to list tags", err)
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		var tag domain.Tag
		var color sql.NullString
		if err := rows.Scan(&tag.TagID, &tag.TagName, &color); err != nil {
			return nil, NewError(ErrDatabase, "failed to scan tag", err)
		}
		if color.Valid {
			tag.Color = color.String
		}
		tags = append(tags, &tag)
	}
	if err := rows.Err(); err != nil {
		return nil, NewError(ErrDatabase, "failed to iterate tags", err)
	}
	return tags, nil
}

// UpsertTag 创建或更新tag（tag_name已存在时更新color）
func (r *PostgresTagsRepository) UpsertTag(ctx context.Context, tag *domain.Tag) (string, error) {
	if tag == nil {
		return "", fmt.Errorf("tag is required")
	}
	if strings.TrimSpace(tag.TagName) == "" {
		return "", fmt.Errorf("tag_name is required")
	}

	var colorArg any = nil
	if tag.Color != "" {
		colorArg = tag.Color
	}

	query := `
		INSERT INTO tags (tag_name, color)
		VALUES ($1, $2)
		ON CONFLICT (tag_name) DO UPDATE SET color = EXCLUDED.color
		RETURNING tag_id::text`

	var tagID string
	if err := r.db.QueryRowContext(ctx, query, tag.TagName, colorArg).Scan(&tagID); err != nil {
		return "", NewError(ErrDatabase, "failed to upsert tag", err)
	}
	return tagID, nil
}

// DeleteTag 删除tag（certificate_tags关联由外键CASCADE清理）
func (r *PostgresTagsRepository) DeleteTag(ctx context.Context, tagID string) error {
	if tagID == "" {
		return fmt.Errorf("tag_id is required")
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE tag_id = $1`, tagID)
	if err != nil {
		return NewError(ErrDatabase, "failed to delete tag", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return NewError(ErrDatabase, "failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return NewError(ErrNotFound, "tag not found", nil)
	}
	return nil
}
