package repository

import (
	"context"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

// TagsRepository 标签Repository接口
// 使用强类型领域模型，不使用map[string]any
// 设计原则：从底层（数据库）向上设计，Repository层只负责数据访问
type TagsRepository interface {
	// ========== 查询 ==========
	// GetTag 根据tag_id获取tag
	GetTag(ctx context.Context, tagID string) (*domain.Tag, error)

	// ListTags 查询全部标签（小目录，按tag_name排序，不分页）
	ListTags(ctx context.Context) ([]*domain.Tag, error)

	// ========== 创建/更新 ==========
	// UpsertTag 创建或更新tag
	// 注意：
	//   - 使用upsert语义：tag_name已存在时更新color
	//   - 返回tag_id（新建或已存在的）
	UpsertTag(ctx context.Context, tag *domain.Tag) (string, error)

	// ========== 删除 ==========
	// DeleteTag 删除tag
	// 注意：certificate_tags中的关联由外键CASCADE一并清理
	DeleteTag(ctx context.Context, tagID string) error
}
