package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

// OpsNotifier 带外运维通知通道（webhook等），允许为nil
// 用于上报"静默降级"类事件，不影响请求结果
type OpsNotifier interface {
	Notify(ctx context.Context, event string, fields map[string]any)
}

// PostgresCertificatesRepository 证书Repository实现（强类型版本）
// 实现CertificateRepository接口，使用domain领域模型
type PostgresCertificatesRepository struct {
	db       *sql.DB
	logger   *zap.Logger
	types    *TypeResolver
	statuses *StatusResolver
	ops      OpsNotifier
}

// NewPostgresCertificatesRepository 创建证书Repository
// ops可为nil（不上报运维事件）
func NewPostgresCertificatesRepository(db *sql.DB, logger *zap.Logger, types *TypeResolver, statuses *StatusResolver, ops OpsNotifier) *PostgresCertificatesRepository {
	return &PostgresCertificatesRepository{
		db:       db,
		logger:   logger,
		types:    types,
		statuses: statuses,
		ops:      ops,
	}
}

// 确保实现了接口
var _ CertificateRepository = (*PostgresCertificatesRepository)(nil)

// ============================================
// Certificates 表操作
// ============================================

// CreateCertificate 创建证书记录（主行 + certificate_tags同一事务）
func (r *PostgresCertificatesRepository) CreateCertificate(ctx context.Context, input CertificateInput) (*domain.Certificate, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(input.RecordNumber) == "" {
		return nil, fmt.Errorf("record_number is required")
	}

	// 解析类型（不存在则即时创建）
	var typeIDArg any = nil
	if strings.TrimSpace(input.CertificateTypeName) != "" {
		typeID, err := r.types.ResolveTypeID(ctx, input.CertificateTypeName)
		if err != nil {
			return nil, err
		}
		typeIDArg = typeID
	}

	// 解析状态（空走默认"pending"，未知名称返回INVALID_STATUS）
	var statusID string
	var err error
	if strings.TrimSpace(input.StatusName) == "" {
		statusID, err = r.statuses.DefaultStatusID(ctx)
	} else {
		statusID, err = r.statuses.ResolveStatusID(ctx, input.StatusName)
	}
	if err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}

	// 处理可空字段
	var notesArg any = nil
	if input.Notes != "" {
		notesArg = input.Notes
	}
	var costArg any = nil
	if input.Cost != nil {
		costArg = *input.Cost
	}
	var additionalCostArg any = nil
	if input.AdditionalCost != nil {
		additionalCostArg = *input.AdditionalCost
	}
	var orderNumberArg any = nil
	if input.OrderNumber != "" {
		orderNumberArg = input.OrderNumber
	}
	var paymentTypeIDArg any = nil
	if input.PaymentTypeID != "" {
		paymentTypeIDArg = input.PaymentTypeID
	}
	var paymentDateArg any = nil
	if input.PaymentDate != nil {
		paymentDateArg = *input.PaymentDate
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, NewError(ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var certificateID string
	err = tx.QueryRowContext(ctx,
		`INSERT INTO certificates (
			user_id, certificate_type_id, record_number, parties_names,
			notes, priority, status_id, cost, additional_cost,
			order_number, payment_type_id, payment_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING certificate_id::text`,
		input.UserID, typeIDArg, input.RecordNumber, pq.Array(input.PartiesNames),
		notesArg, string(priority), statusID, costArg, additionalCostArg,
		orderNumberArg, paymentTypeIDArg, paymentDateArg,
	).Scan(&certificateID)
	if err != nil {
		return nil, NewError(ErrDatabase, "failed to create certificate", err)
	}

	if len(input.TagIDs) > 0 {
		if err := insertCertificateTags(ctx, tx, certificateID, input.TagIDs); err != nil {
			return nil, NewError(ErrDatabase, "failed to attach tags", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, NewError(ErrDatabase, "failed to commit transaction", err)
	}

	return r.GetCertificate(ctx, certificateID)
}

// GetCertificate 根据certificate_id获取证书
func (r *PostgresCertificatesRepository) GetCertificate(ctx context.Context, certificateID string) (*domain.Certificate, error) {
	if certificateID == "" {
		return nil, fmt.Errorf("certificate_id is required")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM certificates
		WHERE certificate_id = $1`, certificateColumns)

	row, err := scanCertificateRow(r.db.QueryRowContext(ctx, query, certificateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewError(ErrNotFound, "certificate not found", err)
		}
		return nil, NewError(ErrDatabase, "failed to get certificate", err)
	}

	lookups := r.fetchLookups(ctx, []*certificateRow{row})
	cert := mapCertificate(row, lookups)
	if cert == nil {
		// 行取到了但状态无法构造成合法值对象
		return nil, NewError(ErrUnexpected, "certificate row could not be mapped", nil)
	}
	return cert, nil
}

// ListCertificates 查询证书列表（过滤 + 搜索 + 分页，固定created_at降序）
func (r *PostgresCertificatesRepository) ListCertificates(ctx context.Context, filters CertificateFilters, limit, offset int) ([]*domain.Certificate, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	// 规范化搜索词并预解析匹配的类型id（用于OR进搜索分支）
	search := ""
	if filters.Search != nil {
		search = NormalizeSearchValue(*filters.Search)
	}
	var searchTypeIDs []string
	if search != "" {
		searchTypeIDs, _ = r.types.SearchTypeIDs(ctx, search)
	}

	// 构建WHERE条件
	where := []string{}
	args := []any{}
	argIdx := 1

	if filters.UserID != nil && *filters.UserID != "" {
		where = append(where, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, *filters.UserID)
		argIdx++
	}
	if filters.DateFrom != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *filters.DateFrom)
		argIdx++
	}
	if filters.DateTo != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *filters.DateTo)
		argIdx++
	}

	// 状态过滤：名称解析失败时静默丢弃该条件（兼容行为），只告警和上报
	if filters.StatusName != nil && *filters.StatusName != "" {
		statusID, err := r.statuses.ResolveStatusID(ctx, *filters.StatusName)
		if err != nil {
			r.logger.Warn("Dropping unresolvable status filter",
				zap.String("status_name", *filters.StatusName),
				zap.Error(err))
			if r.ops != nil {
				r.ops.Notify(ctx, "status_filter_dropped", map[string]any{
					"status_name": *filters.StatusName,
					"reason":      err.Error(),
				})
			}
		} else {
			where = append(where, fmt.Sprintf("status_id = $%d", argIdx))
			args = append(args, statusID)
			argIdx++
		}
	}

	if filters.Priority != nil && *filters.Priority != "" {
		where = append(where, priorityPredicate(*filters.Priority))
	}

	// 搜索分支：record_number/order_number模糊、parties_names包含、类型id命中
	if search != "" {
		branches := []string{
			fmt.Sprintf("record_number ILIKE $%d", argIdx),
			fmt.Sprintf("order_number ILIKE $%d", argIdx),
		}
		args = append(args, "%"+search+"%")
		argIdx++

		branches = append(branches, fmt.Sprintf("parties_names @> $%d::text[]", argIdx))
		args = append(args, ArrayContainsLiteral(search))
		argIdx++

		if len(searchTypeIDs) > 0 {
			branches = append(branches, fmt.Sprintf("certificate_type_id = ANY($%d)", argIdx))
			args = append(args, pq.Array(searchTypeIDs))
			argIdx++
		}

		where = append(where, "("+strings.Join(branches, " OR ")+")")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	// 查询总数
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM certificates %s`, whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, NewError(ErrDatabase, "failed to count certificates", err)
	}

	// 查询列表（带分页）
	query := fmt.Sprintf(`
		SELECT %s
		FROM certificates
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, certificateColumns, whereClause, argIdx, argIdx+1)
	args = append(args, limit, offset)

	dbRows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, NewError(ErrDatabase, "failed to list certificates", err)
	}
	defer dbRows.Close()

	rows := []*certificateRow{}
	for dbRows.Next() {
		row, err := scanCertificateRow(dbRows)
		if err != nil {
			return nil, 0, NewError(ErrDatabase, "failed to scan certificate row", err)
		}
		rows = append(rows, row)
	}
	if err := dbRows.Err(); err != nil {
		return nil, 0, NewError(ErrDatabase, "failed to iterate certificate rows", err)
	}

	if len(rows) == 0 {
		return []*domain.Certificate{}, total, nil
	}

	lookups := r.fetchLookups(ctx, rows)
	return mapCertificates(rows, lookups), total, nil
}

// UpdateCertificate 按patch部分更新证书
// 只更新patch中显式出现的字段；可空列区分"未出现"（nil指针）与"显式NULL"
func (r *PostgresCertificatesRepository) UpdateCertificate(ctx context.Context, certificateID string, patch CertificateUpdate) (*domain.Certificate, error) {
	if certificateID == "" {
		return nil, fmt.Errorf("certificate_id is required")
	}

	// 状态/类型名称先解析，失败时不动任何数据
	var statusID string
	if patch.StatusName != nil {
		id, err := r.statuses.ResolveStatusID(ctx, *patch.StatusName)
		if err != nil {
			return nil, err
		}
		statusID = id
	}
	var typeID string
	typeCleared := false
	if patch.CertificateTypeName != nil {
		if strings.TrimSpace(*patch.CertificateTypeName) == "" {
			typeCleared = true
		} else {
			id, err := r.types.ResolveTypeID(ctx, *patch.CertificateTypeName)
			if err != nil {
				return nil, err
			}
			typeID = id
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, NewError(ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	// 构建UPDATE语句
	updates := []string{"updated_at = NOW()"}
	args := []any{certificateID}
	argIdx := 2

	if patch.RecordNumber != nil {
		updates = append(updates, fmt.Sprintf("record_number = $%d", argIdx))
		args = append(args, *patch.RecordNumber)
		argIdx++
	}
	if patch.PartiesNames != nil {
		// 写入规范列并清掉历史别名列，避免旧值在读取时按优先序复活
		updates = append(updates, fmt.Sprintf("parties_names = $%d", argIdx), "parties_name = NULL", "name = NULL")
		args = append(args, pq.Array(*patch.PartiesNames))
		argIdx++
	}
	if patch.Notes != nil {
		if patch.Notes.Valid {
			updates = append(updates, fmt.Sprintf("notes = $%d", argIdx))
			args = append(args, patch.Notes.String)
			argIdx++
		} else {
			updates = append(updates, "notes = NULL")
		}
		updates = append(updates, "note = NULL", "observation = NULL")
	}
	if patch.Priority != nil {
		updates = append(updates, fmt.Sprintf("priority = $%d", argIdx))
		args = append(args, string(*patch.Priority))
		argIdx++
	}
	if patch.StatusName != nil {
		updates = append(updates, fmt.Sprintf("status_id = $%d", argIdx))
		args = append(args, statusID)
		argIdx++
	}
	if patch.CertificateTypeName != nil {
		if typeCleared {
			updates = append(updates, "certificate_type_id = NULL")
		} else {
			updates = append(updates, fmt.Sprintf("certificate_type_id = $%d", argIdx))
			args = append(args, typeID)
			argIdx++
		}
	}
	if patch.Cost != nil {
		if patch.Cost.Valid {
			updates = append(updates, fmt.Sprintf("cost = $%d", argIdx))
			args = append(args, patch.Cost.Float64)
			argIdx++
		} else {
			updates = append(updates, "cost = NULL")
		}
	}
	if patch.AdditionalCost != nil {
		if patch.AdditionalCost.Valid {
			updates = append(updates, fmt.Sprintf("additional_cost = $%d", argIdx))
			args = append(args, patch.AdditionalCost.Float64)
			argIdx++
		} else {
			updates = append(updates, "additional_cost = NULL")
		}
	}
	if patch.OrderNumber != nil {
		if patch.OrderNumber.Valid {
			updates = append(updates, fmt.Sprintf("order_number = $%d", argIdx))
			args = append(args, patch.OrderNumber.String)
			argIdx++
		} else {
			updates = append(updates, "order_number = NULL")
		}
	}
	if patch.PaymentTypeID != nil {
		if patch.PaymentTypeID.Valid {
			updates = append(updates, fmt.Sprintf("payment_type_id = $%d", argIdx))
			args = append(args, patch.PaymentTypeID.String)
			argIdx++
		} else {
			updates = append(updates, "payment_type_id = NULL")
		}
	}
	if patch.PaymentDate != nil {
		if patch.PaymentDate.Valid {
			updates = append(updates, fmt.Sprintf("payment_date = $%d", argIdx))
			args = append(args, patch.PaymentDate.Time)
			argIdx++
		} else {
			updates = append(updates, "payment_date = NULL")
		}
	}

	updateQuery := fmt.Sprintf(`UPDATE certificates SET %s WHERE certificate_id = $1`,
		strings.Join(updates, ", "))
	result, err := tx.ExecContext(ctx, updateQuery, args...)
	if err != nil {
		return nil, NewError(ErrDatabase, "failed to update certificate", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, NewError(ErrDatabase, "failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, NewError(ErrNotFound, "certificate not found", nil)
	}

	// TagIDs出现时整体替换标签集合
	if patch.TagIDs != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM certificate_tags WHERE certificate_id = $1`, certificateID); err != nil {
			return nil, NewError(ErrDatabase, "failed to clear tags", err)
		}
		if len(*patch.TagIDs) > 0 {
			if err := insertCertificateTags(ctx, tx, certificateID, *patch.TagIDs); err != nil {
				return nil, NewError(ErrDatabase, "failed to attach tags", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, NewError(ErrDatabase, "failed to commit transaction", err)
	}

	return r.GetCertificate(ctx, certificateID)
}

// DeleteCertificate 删除证书（certificate_tags由外键CASCADE清理）
func (r *PostgresCertificatesRepository) DeleteCertificate(ctx context.Context, certificateID string) error {
	if certificateID == "" {
		return fmt.Errorf("certificate_id is required")
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM certificates WHERE certificate_id = $1`, certificateID)
	if err != nil {
		return NewError(ErrDatabase, "failed to delete certificate", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return NewError(ErrDatabase, "failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return NewError(ErrNotFound, "certificate not found", nil)
	}
	return nil
}

// ============================================
// 批量关联数据（映射前的并发取数）
// ============================================

// fetchLookups 为一批行并发取类型名/支付方式名/状态详情/标签
// 四路查询只依赖已取回的行集，互不依赖；全部完成后才返回
// 任一路失败降级为空map并告警，列表映射尽力而为
func (r *PostgresCertificatesRepository) fetchLookups(ctx context.Context, rows []*certificateRow) rowLookups {
	typeIDs := make([]string, 0, len(rows))
	paymentTypeIDs := make([]string, 0, len(rows))
	statusIDs := make([]string, 0, len(rows))
	certIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		certIDs = append(certIDs, row.CertificateID)
		statusIDs = append(statusIDs, row.StatusID)
		if row.CertificateTypeID.Valid {
			typeIDs = append(typeIDs, row.CertificateTypeID.String)
		}
		if row.PaymentTypeID.Valid {
			paymentTypeIDs = append(paymentTypeIDs, row.PaymentTypeID.String)
		}
	}

	var lookups rowLookups
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		nameMap, err := r.types.TypeNameMap(ctx, typeIDs)
		if err != nil {
			r.logger.Warn("Failed to fetch certificate type names, mapping without them",
				zap.Error(err))
			nameMap = map[string]string{}
		}
		lookups.TypeNames = nameMap
	}()

	go func() {
		defer wg.Done()
		nameMap, err := r.paymentTypeNameMap(ctx, paymentTypeIDs)
		if err != nil {
			r.logger.Warn("Failed to fetch payment type names, mapping without them",
				zap.Error(err))
			nameMap = map[string]string{}
		}
		lookups.PaymentTypeNames = nameMap
	}()

	go func() {
		defer wg.Done()
		defaultID, err := r.statuses.DefaultStatusID(ctx)
		if err != nil {
			r.logger.Warn("Failed to resolve default status, rows with unknown status will be dropped",
				zap.Error(err))
			lookups.Statuses = r.statuses.StatusInfoMap(ctx, statusIDs)
			return
		}
		ids := make([]string, 0, len(statusIDs)+1)
		ids = append(ids, statusIDs...)
		ids = append(ids, defaultID)
		infoMap := r.statuses.StatusInfoMap(ctx, ids)
		lookups.Statuses = infoMap
		lookups.DefaultStatus = infoMap[defaultID]
	}()

	go func() {
		defer wg.Done()
		tagMap, err := r.tagsByCertificateIDs(ctx, certIDs)
		if err != nil {
			r.logger.Warn("Failed to fetch certificate tags, mapping without them",
				zap.Error(err))
			tagMap = map[string][]domain.Tag{}
		}
		lookups.Tags = tagMap
	}()

	wg.Wait()
	return lookups
}

// paymentTypeNameMap 批量查 payment_type_id -> payment_type_name
func (r *PostgresCertificatesRepository) paymentTypeNameMap(ctx context.Context, ids []string) (map[string]string, error) {
	nameMap := make(map[string]string, len(ids))
	unique := dedupeIDs(ids)
	if len(unique) == 0 {
		return nameMap, nil
	}

	placeholders := make([]string, len(unique))
	args := make([]any, len(unique))
	for i, id := range unique {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT payment_type_id::text, payment_type_name
		FROM payment_types
		WHERE payment_type_id IN (%s)`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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

// tagsByCertificateIDs 批量查证书标签，按绑定时间排序折叠成 certificate_id -> []Tag
// INNER JOIN天然跳过tag行已不存在的悬空关联
func (r *PostgresCertificatesRepository) tagsByCertificateIDs(ctx context.Context, certificateIDs []string) (map[string][]domain.Tag, error) {
	tagMap := make(map[string][]domain.Tag, len(certificateIDs))
	unique := dedupeIDs(certificateIDs)
	if len(unique) == 0 {
		return tagMap, nil
	}

	placeholders := make([]string, len(unique))
	args := make([]any, len(unique))
	for i, id := range unique {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT ct.certificate_id::text, t.tag_id::text, t.tag_name, t.color
		FROM certificate_tags ct
		JOIN tags t ON t.tag_id = ct.tag_id
		WHERE ct.certificate_id IN (%s)
		ORDER BY ct.certificate_id, ct.created_at, t.tag_name`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var certificateID string
		var tag domain.Tag
		var color sql.NullString
		if err := rows.Scan(&certificateID, &tag.TagID, &tag.TagName, &color); err != nil {
			return nil, err
		}
		if color.Valid {
			tag.Color = color.String
		}
		tagMap[certificateID] = append(tagMap[certificateID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tagMap, nil
}

// insertCertificateTags 写入标签关联，重复tag_id静默去重
func insertCertificateTags(ctx context.Context, tx *sql.Tx, certificateID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		if tagID == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO certificate_tags (certificate_id, tag_id)
			 VALUES ($1, $2)
			 ON CONFLICT (certificate_id, tag_id) DO NOTHING`,
			certificateID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// priorityPredicate 优先级过滤的SQL条件
// priority列是历史混合编码：符号值(normal/urgent)或数字串，数字>=1视为urgent
// CASE保证先做正则判断再做numeric转换，不会在非数字行上报错
func priorityPredicate(p domain.Priority) string {
	urgent := `(priority = 'urgent' OR CASE WHEN priority ~ '^[0-9]+$' THEN priority::numeric >= 1 ELSE false END)`
	if p == domain.PriorityUrgent {
		return urgent
	}
	return `(priority IS NULL OR NOT ` + urgent + `)`
}
