package domain

// StatusInfo 证书工作流状态（certificate_statuses 表）
type StatusInfo struct {
	StatusID           string `json:"status_id" db:"status_id"`                       // UUID, PRIMARY KEY
	StatusName         string `json:"status_name" db:"status_name"`                   // VARCHAR(100), NOT NULL, 全局唯一（不区分大小写）
	DisplayName        string `json:"display_name" db:"display_name"`                 // VARCHAR(100), nullable
	Color              string `json:"color,omitempty" db:"color"`                     // VARCHAR(20), nullable（前端展示色）
	CanEditCertificate bool   `json:"can_edit_certificate" db:"can_edit_certificate"` // BOOLEAN, NOT NULL
	IsFinal            bool   `json:"is_final" db:"is_final"`                         // BOOLEAN, NOT NULL（终态不再流转）
}

// DefaultStatusName 新建证书申请的默认状态名称
const DefaultStatusName = "pending"
