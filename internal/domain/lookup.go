package domain

// CertificateType 证书类型（certificate_types 表）
// 类型按名称去重：创建证书时不存在的名称会自动补录
type CertificateType struct {
	CertificateTypeID string `json:"certificate_type_id" db:"certificate_type_id"` // UUID, PRIMARY KEY
	TypeName          string `json:"type_name" db:"type_name"`                     // VARCHAR(200), NOT NULL, UNIQUE
}

// PaymentType 支付方式（payment_types 表）
type PaymentType struct {
	PaymentTypeID   string `json:"payment_type_id" db:"payment_type_id"`     // UUID, PRIMARY KEY
	PaymentTypeName string `json:"payment_type_name" db:"payment_type_name"` // VARCHAR(100), NOT NULL
}
