package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
	"github.com/cayden6ix/certidoes-app-sub002/internal/repository"
)

// LookupService 查询用目录数据（类型/状态/支付方式/标签）
// 前端下拉框和筛选条用，目录都很小，不分页
type LookupService struct {
	types        *repository.TypeResolver
	statuses     *repository.StatusResolver
	paymentTypes repository.PaymentTypesRepository
	tags         repository.TagsRepository
	logger       *zap.Logger
}

// NewLookupService 创建目录服务
func NewLookupService(types *repository.TypeResolver, statuses *repository.StatusResolver, paymentTypes repository.PaymentTypesRepository, tags repository.TagsRepository, logger *zap.Logger) *LookupService {
	return &LookupService{
		types:        types,
		statuses:     statuses,
		paymentTypes: paymentTypes,
		tags:         tags,
		logger:       logger,
	}
}

// ListCertificateTypes 查询证书类型，search非空时按名称模糊过滤
func (s *LookupService) ListCertificateTypes(ctx context.Context, search string) ([]*domain.CertificateType, error) {
	types, err := s.types.ListTypes(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return types, nil
	}
	filtered := make([]*domain.CertificateType, 0, len(types))
	for _, t := range types {
		if strings.Contains(strings.ToLower(t.TypeName), search) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// ListStatuses 查询全部状态
func (s *LookupService) ListStatuses(ctx context.Context) ([]*domain.StatusInfo, error) {
	return s.statuses.ListStatuses(ctx)
}

// ListPaymentTypes 查询全部支付方式
func (s *LookupService) ListPaymentTypes(ctx context.Context) ([]*domain.PaymentType, error) {
	return s.paymentTypes.ListPaymentTypes(ctx)
}

// ListTags 查询全部标签
func (s *LookupService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.tags.ListTags(ctx)
}

// UpsertTagRequest 创建/更新标签请求
type UpsertTagRequest struct {
	TagName string `json:"tag_name"`
	Color   string `json:"color"`
}

// UpsertTag 创建或更新标签，返回tag_id
func (s *LookupService) UpsertTag(ctx context.Context, req UpsertTagRequest) (string, error) {
	if strings.TrimSpace(req.TagName) == "" {
		return "", NewValidationError("tag_name is required")
	}
	tagID, err := s.tags.UpsertTag(ctx, &domain.Tag{
		TagName: strings.TrimSpace(req.TagName),
		Color:   strings.TrimSpace(req.Color),
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("Tag upserted", zap.String("tag_id", tagID), zap.String("tag_name", req.TagName))
	return tagID, nil
}

// DeleteTag 删除标签（证书上的关联随外键级联移除）
func (s *LookupService) DeleteTag(ctx context.Context, tagID string) error {
	if tagID == "" {
		return NewValidationError("tag_id is required")
	}
	return s.tags.DeleteTag(ctx, tagID)
}
