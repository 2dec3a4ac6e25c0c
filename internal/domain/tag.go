package domain

// Tag 标签领域模型（tags 表）
// 通过 certificate_tags 关联表绑定到证书申请
type Tag struct {
	TagID   string `json:"tag_id" db:"tag_id"`           // UUID, PRIMARY KEY
	TagName string `json:"tag_name" db:"tag_name"`       // VARCHAR(100), NOT NULL, UNIQUE
	Color   string `json:"color,omitempty" db:"color"`   // VARCHAR(20), nullable
}
