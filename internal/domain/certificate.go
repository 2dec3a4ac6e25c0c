package domain

import (
	"time"
)

// Certificate 证书申请领域模型（certificates 表的聚合视图）
// 行数据 + 解析后的关联信息（类型名称、状态、支付方式名称、标签）
type Certificate struct {
	// 主键
	CertificateID string `json:"certificate_id"` // UUID, PRIMARY KEY

	// 申请人
	UserID string `json:"user_id"` // UUID, NOT NULL

	// 证书类型（type名称来自certificate_types表，可能解析失败为空）
	CertificateTypeID   string `json:"certificate_type_id,omitempty"` // UUID, nullable
	CertificateTypeName string `json:"certificate_type_name,omitempty"`

	// 档案信息
	RecordNumber string `json:"record_number"` // TEXT, NOT NULL（registro/livro编号）
	PartiesName  string `json:"parties_name"`  // 三个历史列合并后的展示值（parties_names > parties_name > name）
	Notes        string `json:"notes,omitempty"`

	// 优先级（历史遗留混合编码，读取时归一化）
	Priority Priority `json:"priority"`

	// 工作流状态
	StatusID string      `json:"status_id"` // UUID, NOT NULL
	Status   *StatusInfo `json:"status,omitempty"`

	// 支付信息
	Cost            *float64   `json:"cost,omitempty"`            // NUMERIC, nullable
	AdditionalCost  *float64   `json:"additional_cost,omitempty"` // NUMERIC, nullable
	OrderNumber     string     `json:"order_number,omitempty"`    // TEXT, nullable
	PaymentTypeID   string     `json:"payment_type_id,omitempty"` // UUID, nullable
	PaymentTypeName string     `json:"payment_type_name,omitempty"`
	PaymentDate     *time.Time `json:"payment_date,omitempty"` // DATE, nullable

	// 标签（绑定顺序）
	Tags []Tag `json:"tags"`

	// 时间戳
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
