package httpapi

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
	"github.com/cayden6ix/certidoes-app-sub002/internal/repository"
	"github.com/cayden6ix/certidoes-app-sub002/internal/service"
)

// CertificatesHandler 证书/档案请求 Handler
type CertificatesHandler struct {
	certService *service.CertificateService
	logger      *zap.Logger
}

// NewCertificatesHandler 创建证书 Handler
func NewCertificatesHandler(certService *service.CertificateService, logger *zap.Logger) *CertificatesHandler {
	return &CertificatesHandler{
		certService: certService,
		logger:      logger,
	}
}

// List 证书列表（过滤 + 搜索 + 分页）
func (h *CertificatesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	req := service.ListCertificatesRequest{
		UserID:   strings.TrimSpace(q.Get("user_id")),
		Status:   strings.TrimSpace(q.Get("status")),
		Priority: strings.TrimSpace(q.Get("priority")),
		Search:   q.Get("search"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
		Limit:    parseInt(q.Get("limit"), 50),
		Offset:   parseInt(q.Get("offset"), 0),
	}

	resp, err := h.certService.ListCertificates(ctx, req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp))
}

// Create 创建证书
func (h *CertificatesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.CreateCertificateRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	// 未显式指定归属时记到当前登录用户名下
	if req.UserID == "" {
		if claims, ok := ClaimsFrom(ctx); ok {
			req.UserID = claims.UserID
		}
	}

	cert, err := h.certService.CreateCertificate(ctx, req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, Ok(cert))
}

// Export 导出Excel，过滤条件与列表一致
func (h *CertificatesHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	req := service.ListCertificatesRequest{
		UserID:   strings.TrimSpace(q.Get("user_id")),
		Status:   strings.TrimSpace(q.Get("status")),
		Priority: strings.TrimSpace(q.Get("priority")),
		Search:   q.Get("search"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}

	data, err := h.certService.ExportCertificatesXLSX(ctx, req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	filename := fmt.Sprintf("certificates_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GetByID 查询单个证书
func (h *CertificatesHandler) GetByID(w http.ResponseWriter, r *http.Request, certificateID string) {
	cert, err := h.certService.GetCertificate(r.Context(), certificateID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(cert))
}

// Update 部分更新证书
// body只带要改的字段；可空字段显式null表示清空
func (h *CertificatesHandler) Update(w http.ResponseWriter, r *http.Request, certificateID string) {
	ctx := r.Context()

	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	patch, err := buildCertificatePatch(payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	cert, err := h.certService.UpdateCertificate(ctx, certificateID, patch)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(cert))
}

// Delete 删除证书（仅admin角色）
func (h *CertificatesHandler) Delete(w http.ResponseWriter, r *http.Request, certificateID string) {
	ctx := r.Context()

	claims, ok := ClaimsFrom(ctx)
	if !ok || claims.Role != "admin" {
		writeJSON(w, http.StatusForbidden, Fail("insufficient role"))
		return
	}

	if err := h.certService.DeleteCertificate(ctx, certificateID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": true}))
}

// ============================================
// PATCH body 翻译
// ============================================

// buildCertificatePatch 把PATCH body翻译为三态patch：
// 键缺省=不改；显式null=清空（仅可空字段）；带值=覆盖
func buildCertificatePatch(payload map[string]any) (repository.CertificateUpdate, error) {
	var patch repository.CertificateUpdate

	if raw, ok := payload["certificate_type"]; ok {
		if raw == nil {
			// null 清空证书类型
			empty := ""
			patch.CertificateTypeName = &empty
		} else {
			s, ok := raw.(string)
			if !ok {
				return patch, service.NewValidationError("certificate_type must be a string")
			}
			patch.CertificateTypeName = &s
		}
	}

	if raw, ok := payload["record_number"]; ok {
		if raw == nil {
			return patch, service.NewValidationError("record_number cannot be null")
		}
		s, ok := raw.(string)
		if !ok {
			return patch, service.NewValidationError("record_number must be a string")
		}
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return patch, service.NewValidationError("record_number cannot be empty")
		}
		patch.RecordNumber = &trimmed
	}

	if raw, ok := payload["parties_names"]; ok {
		if raw == nil {
			patch.PartiesNames = &[]string{}
		} else {
			names, err := stringSliceField("parties_names", raw)
			if err != nil {
				return patch, err
			}
			patch.PartiesNames = &names
		}
	}

	if raw, ok := payload["notes"]; ok {
		ns, err := nullStringField("notes", raw)
		if err != nil {
			return patch, err
		}
		patch.Notes = ns
	}

	if raw, ok := payload["priority"]; ok {
		if raw == nil {
			return patch, service.NewValidationError("priority cannot be null")
		}
		s, ok := raw.(string)
		if !ok {
			return patch, service.NewValidationError("priority must be a string")
		}
		if !domain.IsRecognizedPriority(s) {
			return patch, service.NewValidationError("priority %q is not recognized", s)
		}
		p := domain.ParsePriority(s)
		patch.Priority = &p
	}

	if raw, ok := payload["status"]; ok {
		if raw == nil {
			return patch, service.NewValidationError("status cannot be null")
		}
		s, ok := raw.(string)
		if !ok {
			return patch, service.NewValidationError("status must be a string")
		}
		if strings.TrimSpace(s) == "" {
			return patch, service.NewValidationError("status cannot be empty")
		}
		patch.StatusName = &s
	}

	if raw, ok := payload["cost"]; ok {
		nf, err := nullFloatField("cost", raw)
		if err != nil {
			return patch, err
		}
		patch.Cost = nf
	}

	if raw, ok := payload["additional_cost"]; ok {
		nf, err := nullFloatField("additional_cost", raw)
		if err != nil {
			return patch, err
		}
		patch.AdditionalCost = nf
	}

	if raw, ok := payload["order_number"]; ok {
		ns, err := nullStringField("order_number", raw)
		if err != nil {
			return patch, err
		}
		patch.OrderNumber = ns
	}

	if raw, ok := payload["payment_type_id"]; ok {
		ns, err := nullStringField("payment_type_id", raw)
		if err != nil {
			return patch, err
		}
		patch.PaymentTypeID = ns
	}

	if raw, ok := payload["payment_date"]; ok {
		if raw == nil {
			patch.PaymentDate = &sql.NullTime{}
		} else {
			s, ok := raw.(string)
			if !ok {
				return patch, service.NewValidationError("payment_date must be a string")
			}
			t, err := parsePatchDate("payment_date", s)
			if err != nil {
				return patch, err
			}
			patch.PaymentDate = &sql.NullTime{Time: t, Valid: true}
		}
	}

	if raw, ok := payload["tag_ids"]; ok {
		if raw == nil {
			patch.TagIDs = &[]string{}
		} else {
			ids, err := stringSliceField("tag_ids", raw)
			if err != nil {
				return patch, err
			}
			patch.TagIDs = &ids
		}
	}

	return patch, nil
}

func nullStringField(field string, raw any) (*sql.NullString, error) {
	if raw == nil {
		return &sql.NullString{}, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, service.NewValidationError("%s must be a string", field)
	}
	return &sql.NullString{String: s, Valid: true}, nil
}

func nullFloatField(field string, raw any) (*sql.NullFloat64, error) {
	if raw == nil {
		return &sql.NullFloat64{}, nil
	}
	f, ok := raw.(float64)
	if !ok {
		return nil, service.NewValidationError("%s must be a number", field)
	}
	return &sql.NullFloat64{Float64: f, Valid: true}, nil
}

func stringSliceField(field string, raw any) ([]string, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, service.NewValidationError("%s must be an array of strings", field)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, service.NewValidationError("%s must be an array of strings", field)
		}
		out = append(out, s)
	}
	return out, nil
}

func parsePatchDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, service.NewValidationError("%s must be YYYY-MM-DD or RFC3339, got %q", field, raw)
}
