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
// 证书类型解析器（多候选表 + 按名即时创建）
// ============================================

// DefaultTypeTables 生产环境的候选表顺序
// 历史上类型表改过名，保留按序探测能力以兼容新旧schema
var DefaultTypeTables = []string{"certificate_types"}

// TypeResolver 证书类型名 <-> id 解析
// 每次调用独立查询，无共享可变状态，并发安全
type TypeResolver struct {
	db         *sql.DB
	logger     *zap.Logger
	candidates []string
}

// NewTypeResolver 创建TypeResolver
// candidates为空时使用DefaultTypeTables
func NewTypeResolver(db *sql.DB, logger *zap.Logger, candidates ...string) *TypeResolver {
	if len(candidates) == 0 {
		candidates = DefaultTypeTables
	}
	return &TypeResolver{
		db:         db,
		logger:     logger,
		candidates: candidates,
	}
}

// ResolveTypeID 按名称解析类型id，不存在时在首个可用候选表中创建
// 候选表逐个尝试：表/列缺失跳到下一个，其它DB错误直接失败
// 所有候选耗尽仍未解析时返回INVALID_CERTIFICATE_TYPE
func (r *TypeResolver) ResolveTypeID(ctx context.Context, typeName string) (string, error) {
	name := strings.TrimSpace(typeName)
	if name == "" {
		return "", NewError(ErrInvalidCertificateType, "certificate type name is required", nil)
	}

	for _, table := range r.candidates {
		id, err := r.lookupTypeID(ctx, table, name)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			if IsRelationMissing(err) {
				continue
			}
			return "", NewError(ErrDatabase, "failed to resolve certificate type", err)
		}

		// 本表确认无此名称，尝试创建
		id, err = r.insertType(ctx, table, name)
		if err == nil {
			return id, nil
		}
		if IsUniqueViolation(err) {
			// 并发创建撞了唯一约束，回查一次
			id, lookupErr := r.lookupTypeID(ctx, table, name)
			if lookupErr == nil {
				return id, nil
			}
			err = lookupErr
		}
		if IsRelationMissing(err) {
			continue
		}
		return "", NewError(ErrDatabase, "failed to create certificate type", err)
	}

	return "", NewError(ErrInvalidCertificateType,
		fmt.Sprintf("certificate type %q could not be resolved in any backing table", name), nil)
}

// TypeNameMap 批量反查 id -> type_name
// 按候选表顺序取第一个应答的表；表存在但零命中同样视为权威结果
func (r *TypeResolver) TypeNameMap(ctx context.Context, ids []string) (map[string]string, error) {
	unique := dedupeIDs(ids)
	if len(unique) == 0 {
		return map[string]string{}, nil
	}

	for _, table := range r.candidates {
		nameMap, err := r.queryTypeNames(ctx, table, unique)
		if err != nil {
			if IsRelationMissing(err) {
				continue
			}
			return nil, NewError(ErrDatabase, "failed to fetch certificate type names", err)
		}
		return nameMap, nil
	}
	return map[string]string{}, nil
}

// SearchTypeIDs 按名称片段查类型id（不区分大小写），取第一个非空结果集
// 搜索只是列表查询的增强分支：候选表全部落空时返回空集而不是错误
func (r *TypeResolver) SearchTypeIDs(ctx context.Context, term string) ([]string, error) {
	needle := strings.TrimSpace(term)
	if needle == "" {
		return nil, nil
	}

	for _, table := range r.candidates {
		ids, err := r.queryTypeIDsBySearch(ctx, table, needle)
		if err != nil {
			if IsRelationMissing(err) {
				continue
			}
			r.logger.Warn("Failed to search certificate types in candidate table",
				zap.String("table", table),
				zap.Error(err))
			continue
		}
		if len(ids) > 0 {
			return ids, nil
		}
	}
	return nil, nil
}

// ListTypes 查询全部证书类型，按名称排序
// 与TypeNameMap相同的候选表语义：第一个应答的表即权威
func (r *TypeResolver) ListTypes(ctx context.Context) ([]*domain.CertificateType, error) {
	for _, table := range r.candidates {
		types, err := r.queryAllTypes(ctx, table)
		if err != nil {
			if IsRelationMissing(err) {
				continue
			}
			return nil, NewError(ErrDatabase, "failed to list certificate types", err)
		}
		return types, nil
	}
	return []*domain.CertificateType{}, nil
}

// ============================================
// 内部查询（表名来自候选列表，不接受用户输入）
// ============================================

func (r *TypeResolver) lookupTypeID(ctx context.Context, table, name string) (string, error) {
	query := fmt.Sprintf(`
		SELECT certificate_type_id::text
		FROM %s
		WHERE LOWER(type_name) = LOWER($1)`, table)

	var id string
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *TypeResolver) insertType(ctx context.Context, table, name string) (string, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (type_name)
		VALUES ($1)
		RETURNING certificate_type_id::text`, table)

	var id string
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *TypeResolver) queryTypeNames(ctx context.Context, table string, ids []string) (map[string]string, error) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT certificate_type_id::text, type_name
		FROM %s
		WHERE certificate_type_id IN (%s)`, table, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nameMap := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		nameMap[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nameMap, nil
}

func (r *TypeResolver) queryAllTypes(ctx context.Context, table string) ([]*domain.CertificateType, error) {
	query := fmt.Sprintf(`
		SELECT certificate_type_id::text, type_name
		FROM %s
		ORDER BY type_name`, table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []*domain.CertificateType{}
	for rows.Next() {
		var ct domain.CertificateType
		if err := rows.Scan(&ct.CertificateTypeID, &ct.TypeName); err != nil {
			return nil, err
		}
		types = append(types, &ct)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return types, nil
}

func (r *TypeResolver) queryTypeIDsBySearch(ctx context.Context, table, needle string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT certificate_type_id::text
		FROM %s
		WHERE type_name ILIKE $1`, table)

	rows, err := r.db.QueryContext(ctx, query, "%"+needle+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// dedupeIDs 去重并保持首次出现顺序，空串剔除
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
