package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

// CertificateRepository 证书Repository接口
// 使用强类型领域模型，不使用map[string]any
// 设计原则：从底层（数据库）向上设计，Repository层只负责数据访问
// 错误约定：所有方法返回带错误码的 *Error（NOT_FOUND / INVALID_STATUS /
// INVALID_CERTIFICATE_TYPE / DATABASE_ERROR / UNEXPECTED_ERROR），不panic
type CertificateRepository interface {
	// ========== 创建 ==========
	// CreateCertificate 创建证书记录
	// 注意：
	//   - certificate_type按名称解析，不存在时即时创建（见 TypeResolver）
	//   - status按名称解析，不存在时返回INVALID_STATUS；空status用默认"pending"
	//   - tag_ids写入certificate_tags关联表，与主行同一事务
	CreateCertificate(ctx context.Context, input CertificateInput) (*domain.Certificate, error)

	// ========== 查询（单个）==========
	// GetCertificate 根据certificate_id获取证书（含类型/状态/支付方式名称与tags）
	// 状态或优先级无法构造合法值对象时返回UNEXPECTED_ERROR，不静默丢弃
	GetCertificate(ctx context.Context, certificateID string) (*domain.Certificate, error)

	// ========== 查询（列表）==========
	// ListCertificates 查询证书列表（支持过滤、搜索、分页）
	// 注意：
	//   - 固定按created_at降序
	//   - limit<=0时用默认50
	//   - status过滤名无法解析时静默丢弃该过滤条件（兼容行为），仅告警
	//   - 返回值：(列表, 过滤后总数, error)；无法映射的行跳过不计入列表
	ListCertificates(ctx context.Context, filters CertificateFilters, limit, offset int) ([]*domain.Certificate, int, error)

	// ========== 更新 ==========
	// UpdateCertificate 按patch部分更新证书
	// 注意：
	//   - 仅更新patch中显式出现的字段；可空字段区分"未出现"与"显式NULL"
	//   - status名无法解析时返回INVALID_STATUS（与列表的静默丢弃不同）
	//   - TagIDs出现时整体替换关联表中的标签集合
	UpdateCertificate(ctx context.Context, certificateID string, patch CertificateUpdate) (*domain.Certificate, error)

	// ========== 删除 ==========
	// DeleteCertificate 删除证书（certificate_tags由外键CASCADE清理）
	DeleteCertificate(ctx context.Context, certificateID string) error
}

// CertificateInput 创建证书的输入
type CertificateInput struct {
	UserID              string     // 必填，归属用户
	CertificateTypeName string     // 可选，按名称解析，不存在时即时创建
	RecordNumber        string     // 必填
	PartiesNames        []string   // 当事人名单，存入parties_names text[]
	Notes               string     // 可选备注
	Priority            domain.Priority // 空值按normal处理
	StatusName          string     // 可选，空时用默认"pending"
	Cost                *float64   // 可空金额
	AdditionalCost      *float64   // 可空金额
	OrderNumber         string     // 可选
	PaymentTypeID       string     // 可选，指向payment_types
	PaymentDate         *time.Time // 可空日期
	TagIDs              []string   // 关联标签
}

// CertificateUpdate 部分更新patch
// 指针为nil表示字段未出现（不更新）；可空列用sql.Null*承载"显式NULL"
type CertificateUpdate struct {
	CertificateTypeName *string          // 出现时按名称重新解析类型
	RecordNumber        *string          // NOT NULL列，只能改值不能置空
	PartiesNames        *[]string        // 出现时整体替换数组
	Notes               *sql.NullString  // Valid=false表示显式置NULL
	Priority            *domain.Priority // NOT NULL列
	StatusName          *string          // 出现时解析，失败返回INVALID_STATUS
	Cost                *sql.NullFloat64
	AdditionalCost      *sql.NullFloat64
	OrderNumber         *sql.NullString
	PaymentTypeID       *sql.NullString
	PaymentDate         *sql.NullTime
	TagIDs              *[]string // 出现时整体替换标签集合
}

// CertificateFilters 证书列表过滤器
type CertificateFilters struct {
	UserID     *string          // 可选，按归属用户过滤
	StatusName *string          // 可选，按状态名过滤（解析失败静默丢弃）
	Priority   *domain.Priority // 可选，按优先级过滤
	DateFrom   *time.Time       // 可选，created_at >= DateFrom
	DateTo     *time.Time       // 可选，created_at <= DateTo
	Search     *string          // 可选，record_number/order_number/parties_names/类型名 多路OR搜索
}
