package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

// ============================================
// 行映射（certificates 表 -> 领域模型）
// ============================================

// certificateColumns Get/List共用的列投影
// 历史迁移遗留的别名列（parties_name/name、note/observation）一并取出，
// 映射时按优先序取第一个非空值
const certificateColumns = `
	certificate_id::text,
	user_id::text,
	certificate_type_id::text,
	record_number,
	parties_names,
	parties_name,
	name,
	notes,
	note,
	observation,
	priority,
	status_id::text,
	cost,
	additional_cost,
	order_number,
	payment_type_id::text,
	payment_date,
	created_at,
	updated_at`

// certificateRow certificates表的原始扫描结果
type certificateRow struct {
	CertificateID     string
	UserID            string
	CertificateTypeID sql.NullString
	RecordNumber      string
	PartiesNames      pq.StringArray // parties_names TEXT[]
	PartiesName       sql.NullString // 历史列 parties_name
	LegacyName        sql.NullString // 历史列 name
	Notes             sql.NullString
	LegacyNote        sql.NullString // 历史列 note
	LegacyObservation sql.NullString // 历史列 observation
	Priority          sql.NullString // 混合编码：normal/urgent 或数字
	StatusID          string
	Cost              sql.NullFloat64
	AdditionalCost    sql.NullFloat64
	OrderNumber       sql.NullString
	PaymentTypeID     sql.NullString
	PaymentDate       sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanCertificateRow 按certificateColumns的顺序扫描一行
func scanCertificateRow(s rowScanner) (*certificateRow, error) {
	var row certificateRow
	err := s.Scan(
		&row.CertificateID,
		&row.UserID,
		&row.CertificateTypeID,
		&row.RecordNumber,
		&row.PartiesNames,
		&row.PartiesName,
		&row.LegacyName,
		&row.Notes,
		&row.LegacyNote,
		&row.LegacyObservation,
		&row.Priority,
		&row.StatusID,
		&row.Cost,
		&row.AdditionalCost,
		&row.OrderNumber,
		&row.PaymentTypeID,
		&row.PaymentDate,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ============================================
// 历史列别名优先序
// ============================================

// 按序求值，第一个非空值胜出
// 数组值用", "拼接为展示串，空数组视为未命中
var partiesNameAliases = []func(*certificateRow) string{
	func(r *certificateRow) string { return strings.Join(r.PartiesNames, ", ") },
	func(r *certificateRow) string { return r.PartiesName.String },
	func(r *certificateRow) string { return r.LegacyName.String },
}

var notesAliases = []func(*certificateRow) string{
	func(r *certificateRow) string { return r.Notes.String },
	func(r *certificateRow) string { return r.LegacyNote.String },
	func(r *certificateRow) string { return r.LegacyObservation.String },
}

func resolveAlias(row *certificateRow, accessors []func(*certificateRow) string) string {
	for _, get := range accessors {
		if v := get(row); v != "" {
			return v
		}
	}
	return ""
}

// ============================================
// 映射
// ============================================

// rowLookups 映射一批行所需的预解析关联数据
// 各map允许为nil或部分缺失；状态缺失时回退DefaultStatus
type rowLookups struct {
	TypeNames        map[string]string             // certificate_type_id -> type_name
	PaymentTypeNames map[string]string             // payment_type_id -> payment_type_name
	Statuses         map[string]*domain.StatusInfo // status_id -> 状态详情
	Tags             map[string][]domain.Tag       // certificate_id -> 标签（绑定顺序）
	DefaultStatus    *domain.StatusInfo            // 状态详情缺失时的回退展示
}

// mapCertificate 单行映射
// 状态详情缺失且无默认回退时返回nil：
// 批量调用按"跳过该行"处理，单行读取按UNEXPECTED_ERROR处理
func mapCertificate(row *certificateRow, lookups rowLookups) *domain.Certificate {
	status := lookups.Statuses[row.StatusID]
	if status == nil {
		status = lookups.DefaultStatus
	}
	if status == nil {
		return nil
	}

	cert := &domain.Certificate{
		CertificateID: row.CertificateID,
		UserID:        row.UserID,
		RecordNumber:  row.RecordNumber,
		PartiesName:   resolveAlias(row, partiesNameAliases),
		Notes:         resolveAlias(row, notesAliases),
		Priority:      domain.ParsePriority(row.Priority.String),
		StatusID:      row.StatusID,
		Status:        status,
		Tags:          lookups.Tags[row.CertificateID],
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if cert.Tags == nil {
		cert.Tags = []domain.Tag{}
	}

	if row.CertificateTypeID.Valid {
		cert.CertificateTypeID = row.CertificateTypeID.String
		cert.CertificateTypeName = lookups.TypeNames[row.CertificateTypeID.String]
	}
	if row.Cost.Valid {
		cost := row.Cost.Float64
		cert.Cost = &cost
	}
	if row.AdditionalCost.Valid {
		additional := row.AdditionalCost.Float64
		cert.AdditionalCost = &additional
	}
	if row.OrderNumber.Valid {
		cert.OrderNumber = row.OrderNumber.String
	}
	if row.PaymentTypeID.Valid {
		cert.PaymentTypeID = row.PaymentTypeID.String
		cert.PaymentTypeName = lookups.PaymentTypeNames[row.PaymentTypeID.String]
	}
	if row.PaymentDate.Valid {
		paymentDate := row.PaymentDate.Time
		cert.PaymentDate = &paymentDate
	}

	return cert
}

// mapCertificates 批量映射，无法映射的行静默跳过（尽力而为的列表语义）
func mapCertificates(rows []*certificateRow, lookups rowLookups) []*domain.Certificate {
	certs := make([]*domain.Certificate, 0, len(rows))
	for _, row := range rows {
		if cert := mapCertificate(row, lookups); cert != nil {
			certs = append(certs, cert)
		}
	}
	return certs
}
