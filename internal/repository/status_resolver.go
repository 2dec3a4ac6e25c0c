package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

// ============================================
// 证书状态解析器（certificate_statuses 表）
// ============================================

// StatusResolver 状态名 <-> id / 状态详情解析
// 状态行假定已预置种子数据，按名缺失不做即时创建（与TypeResolver不同）
type StatusResolver struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatusResolver 创建StatusResolver
func NewStatusResolver(db *sql.DB, logger *zap.Logger) *StatusResolver {
	return &StatusResolver{db: db, logger: logger}
}

// ResolveStatusID 按名称解析状态id（不区分大小写，精确匹配）
// 名称不存在返回INVALID_STATUS，与DB错误(DATABASE_ERROR)区分
func (r *StatusResolver) ResolveStatusID(ctx context.Context, statusName string) (string, error) {
	name := strings.TrimSpace(statusName)
	if name == "" {
		return "", NewError(ErrInvalidStatus, "status name is required", nil)
	}

	query := `
		SELECT status_id::text
		FROM certificate_statuses
		WHERE LOWER(status_name) = LOWER($1)`

	var id string
	err := r.db.QueryRowContext(ctx, query, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", NewError(ErrInvalidStatus,
				fmt.Sprintf("status %q does not exist", name), err)
		}
		return "", NewError(ErrDatabase, "failed to resolve status", err)
	}
	return id, nil
}

// DefaultStatusID 默认状态（按名称常量"pending"解析）
func (r *StatusResolver) DefaultStatusID(ctx context.Context) (string, error) {
	return r.ResolveStatusID(ctx, domain.DefaultStatusName)
}

// StatusInfoMap 批量查 status_id -> 状态详情
// 输入id先去重；查询失败降级为部分/空map并记录告警，不向上抛错
// 调用方对缺失条目按"使用默认状态展示"处理
func (r *StatusResolver) StatusInfoMap(ctx context.Context, ids []string) map[string]*domain.StatusInfo {
	infoMap := make(map[string]*domain.StatusInfo)

	unique := dedupeIDs(ids)
	if len(unique) == 0 {
		return infoMap
	}

	placeholders := make([]string, len(unique))
	args := make([]any, len(unique))
	for i, id := range unique {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT status_id::text, status_name, display_name, color, can_edit_certificate, is_final
		FROM certificate_statuses
		WHERE status_id IN (%s)`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Warn("Failed to fetch status info map, degrading to empty",
			zap.Int("id_count", len(unique)),
			zap.Error(err))
		return infoMap
	}
	defer rows.Close()

	for rows.Next() {
		var info domain.StatusInfo
		var color sql.NullString
		if err := rows.Scan(&info.StatusID, &info.StatusName, &info.DisplayName,
			&color, &info.CanEditCertificate, &info.IsFinal); err != nil {
			r.logger.Warn("Failed to scan status info row, degrading to partial",
				zap.Error(err))
			return infoMap
		}
		if color.Valid {
			info.Color = color.String
		}
		infoMap[info.StatusID] = &info
	}
	if err := rows.Err(); err != nil {
		r.logger.Warn("Status info rows iteration failed, degrading to partial",
			zap.Error(err))
	}
	return infoMap
}

// ListStatuses 查询全部状态，按状态名排序
func (r *StatusResolver) ListStatuses(ctx context.Context) ([]*domain.StatusInfo, error) {
	query := `
		SELECT status_id::text, status_name, display_name, color, can_edit_certificate, is_final
		FROM certificate_statuses
		ORDER BY status_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, NewError(ErrDatabase, "failed to list statuses", err)
	}
	defer rows.Close()

	statuses := []*domain.StatusInfo{}
	for rows.Next() {
		var info domain.StatusInfo
		var color sql.NullString
		if err := rows.Scan(&info.StatusID, &info.StatusName, &info.DisplayName,
			&color, &info.CanEditCertificate, &info.IsFinal); err != nil {
			return nil, NewError(ErrDatabase, "failed to scan status", err)
		}
		if color.Valid {
			info.Color = color.String
		}
		statuses = append(statuses, &info)
	}
	if err := rows.Err(); err != nil {
		return nil, NewError(ErrDatabase, "failed to iterate statuses", err)
	}
	return statuses, nil
}

// CanEditCertificate 查询状态的可编辑标志
// 状态id不存在返回NOT_FOUND
func (r *StatusResolver) CanEditCertificate(ctx context.Context, statusID string) (bool, error) {
	query := `
		SELECT can_edit_certificate
		FROM certificate_statuses
		WHERE status_id = $1`

	var canEdit bool
	err := r.db.QueryRowContext(ctx, query, statusID).Scan(&canEdit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, NewError(ErrNotFound, "status not found", err)
		}
		return false, NewError(ErrDatabase, "failed to check status edit flag", err)
	}
	return canEdit, nil
}
