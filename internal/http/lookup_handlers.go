package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/service"
)

// LookupHandler 目录数据 Handler（证书类型/状态/支付方式/标签）
type LookupHandler struct {
	lookupService *service.LookupService
	logger        *zap.Logger
}

// NewLookupHandler 创建目录 Handler
func NewLookupHandler(lookupService *service.LookupService, logger *zap.Logger) *LookupHandler {
	return &LookupHandler{
		lookupService: lookupService,
		logger:        logger,
	}
}

// ListCertificateTypes 证书类型列表，?search=关键字 时模糊过滤
func (h *LookupHandler) ListCertificateTypes(w http.ResponseWriter, r *http.Request) {
	items, err := h.lookupService.ListCertificateTypes(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// ListStatuses 状态列表
func (h *LookupHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	items, err := h.lookupService.ListStatuses(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// ListPaymentTypes 支付方式列表
func (h *LookupHandler) ListPaymentTypes(w http.ResponseWriter, r *http.Request) {
	items, err := h.lookupService.ListPaymentTypes(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// ListTags 标签列表
func (h *LookupHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	items, err := h.lookupService.ListTags(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// UpsertTag 创建或更新标签（按tag_name幂等）
func (h *LookupHandler) UpsertTag(w http.ResponseWriter, r *http.Request) {
	var req service.UpsertTagRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	tagID, err := h.lookupService.UpsertTag(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"tag_id": tagID}))
}

// DeleteTag 删除标签（仅admin角色，证书关联级联移除）
func (h *LookupHandler) DeleteTag(w http.ResponseWriter, r *http.Request, tagID string) {
	ctx := r.Context()

	claims, ok := ClaimsFrom(ctx)
	if !ok || claims.Role != "admin" {
		writeJSON(w, http.StatusForbidden, Fail("insufficient role"))
		return
	}

	if err := h.lookupService.DeleteTag(ctx, tagID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": true}))
}
