package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
	"github.com/cayden6ix/certidoes-app-sub002/internal/metrics"
	"github.com/cayden6ix/certidoes-app-sub002/internal/repository"
)

// ErrCertificateNotEditable 当前状态锁定内容编辑（can_edit_certificate=false）
// 状态流转本身不受此限制，否则记录会卡死在终态
var ErrCertificateNotEditable = errors.New("certificate is not editable in its current status")

// CertificateService 证书业务服务
type CertificateService struct {
	certs   repository.CertificateRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCertificateService 创建证书服务
func NewCertificateService(certs repository.CertificateRepository, m *metrics.Metrics, logger *zap.Logger) *CertificateService {
	return &CertificateService{
		certs:   certs,
		metrics: m,
		logger:  logger,
	}
}

// CreateCertificateRequest 创建证书请求
type CreateCertificateRequest struct {
	UserID          string   `json:"user_id"`
	CertificateType string   `json:"certificate_type"`
	RecordNumber    string   `json:"record_number"`
	PartiesNames    []string `json:"parties_names"`
	Notes           string   `json:"notes"`
	Priority        string   `json:"priority"`
	Status          string   `json:"status"`
	Cost            *float64 `json:"cost"`
	AdditionalCost  *float64 `json:"additional_cost"`
	OrderNumber     string   `json:"order_number"`
	PaymentTypeID   string   `json:"payment_type_id"`
	PaymentDate     string   `json:"payment_date"` // "2006-01-02" 或 RFC3339
	TagIDs          []string `json:"tag_ids"`
}

// CreateCertificate 创建证书
func (s *CertificateService) CreateCertificate(ctx context.Context, req CreateCertificateRequest) (*domain.Certificate, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, NewValidationError("user_id is required")
	}
	if strings.TrimSpace(req.RecordNumber) == "" {
		return nil, NewValidationError("record_number is required")
	}
	if !domain.IsRecognizedPriority(req.Priority) {
		return nil, NewValidationError("priority %q is not recognized", req.Priority)
	}
	paymentDate, err := parseDateField("payment_date", req.PaymentDate)
	if err != nil {
		return nil, err
	}

	input := repository.CertificateInput{
		UserID:              req.UserID,
		CertificateTypeName: req.CertificateType,
		RecordNumber:        strings.TrimSpace(req.RecordNumber),
		PartiesNames:        req.PartiesNames,
		Notes:               req.Notes,
		Priority:            domain.ParsePriority(req.Priority),
		StatusName:          req.Status,
		Cost:                req.Cost,
		AdditionalCost:      req.AdditionalCost,
		OrderNumber:         req.OrderNumber,
		PaymentTypeID:       req.PaymentTypeID,
		PaymentDate:         paymentDate,
		TagIDs:              req.TagIDs,
	}

	cert, err := s.certs.CreateCertificate(ctx, input)
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementCertificatesCreated()
	s.logger.Info("Certificate created",
		zap.String("certificate_id", cert.CertificateID),
		zap.String("record_number", cert.RecordNumber))
	return cert, nil
}

// GetCertificate 查询单个证书
func (s *CertificateService) GetCertificate(ctx context.Context, certificateID string) (*domain.Certificate, error) {
	if certificateID == "" {
		return nil, NewValidationError("certificate_id is required")
	}
	return s.certs.GetCertificate(ctx, certificateID)
}

// ListCertificatesRequest 证书列表请求（来自query参数）
type ListCertificatesRequest struct {
	UserID   string
	Status   string
	Priority string
	Search   string
	DateFrom string // "2006-01-02" 或 RFC3339
	DateTo   string
	Limit    int
	Offset   int
}

// ListCertificatesResponse 证书列表响应
type ListCertificatesResponse struct {
	Items  []*domain.Certificate `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// ListCertificates 查询证书列表
func (s *CertificateService) ListCertificates(ctx context.Context, req ListCertificatesRequest) (*ListCertificatesResponse, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	filters := repository.CertificateFilters{}
	if req.UserID != "" {
		filters.UserID = &req.UserID
	}
	if req.Status != "" {
		filters.StatusName = &req.Status
	}
	if req.Priority != "" {
		if !domain.IsRecognizedPriority(req.Priority) {
			return nil, NewValidationError("priority %q is not recognized", req.Priority)
		}
		priority := domain.ParsePriority(req.Priority)
		filters.Priority = &priority
	}
	if req.Search != "" {
		filters.Search = &req.Search
	}

	dateFrom, err := parseDateField("date_from", req.DateFrom)
	if err != nil {
		return nil, err
	}
	filters.DateFrom = dateFrom

	dateTo, err := parseDateField("date_to", req.DateTo)
	if err != nil {
		return nil, err
	}
	if dateTo != nil {
		// 纯日期上界按全天含入
		if isDateOnly(req.DateTo) {
			end := dateTo.Add(24*time.Hour - time.Nanosecond)
			dateTo = &end
		}
		filters.DateTo = dateTo
	}

	items, total, err := s.certs.ListCertificates(ctx, filters, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}
	return &ListCertificatesResponse{
		Items:  items,
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}, nil
}

// UpdateCertificate 部分更新证书
// 当前状态can_edit_certificate=false时拒绝内容修改，状态流转放行
func (s *CertificateService) UpdateCertificate(ctx context.Context, certificateID string, patch repository.CertificateUpdate) (*domain.Certificate, error) {
	if certificateID == "" {
		return nil, NewValidationError("certificate_id is required")
	}
	if patch.Priority != nil && !patch.Priority.IsValid() {
		return nil, NewValidationError("priority %q is not recognized", string(*patch.Priority))
	}

	current, err := s.certs.GetCertificate(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if current.Status != nil && !current.Status.CanEditCertificate && patchTouchesContent(patch) {
		return nil, ErrCertificateNotEditable
	}

	return s.certs.UpdateCertificate(ctx, certificateID, patch)
}

// DeleteCertificate 删除证书
func (s *CertificateService) DeleteCertificate(ctx context.Context, certificateID string) error {
	if certificateID == "" {
		return NewValidationError("certificate_id is required")
	}
	if err := s.certs.DeleteCertificate(ctx, certificateID); err != nil {
		return err
	}
	s.logger.Info("Certificate deleted", zap.String("certificate_id", certificateID))
	return nil
}

// patchTouchesContent 判断patch是否触及内容字段（仅改状态不算）
func patchTouchesContent(patch repository.CertificateUpdate) bool {
	return patch.CertificateTypeName != nil ||
		patch.RecordNumber != nil ||
		patch.PartiesNames != nil ||
		patch.Notes != nil ||
		patch.Priority != nil ||
		patch.Cost != nil ||
		patch.AdditionalCost != nil ||
		patch.OrderNumber != nil ||
		patch.PaymentTypeID != nil ||
		patch.PaymentDate != nil ||
		patch.TagIDs != nil
}

// parseDateField 解析日期参数，接受纯日期和RFC3339两种格式，空串返回nil
func parseDateField(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	return nil, NewValidationError("%s must be YYYY-MM-DD or RFC3339, got %q", field, raw)
}

func isDateOnly(raw string) bool {
	_, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	return err == nil
}
