package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/repository"
	"github.com/cayden6ix/certidoes-app-sub002/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// pathID 提取资源路径末段id，含多余路径段时返回false
func pathID(path, prefix string) (string, bool) {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// writeServiceError 把Service/Repository错误翻译为HTTP状态 + Result封装
// NOT_FOUND -> 404；校验类/INVALID_* -> 400；编辑锁定 -> 409；其余 -> 500（细节只进日志）
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, Fail(ve.Error()))
		return
	}
	if errors.Is(err, service.ErrCertificateNotEditable) {
		writeJSON(w, http.StatusConflict, Fail(err.Error()))
		return
	}

	var re *repository.Error
	safeMessage := "internal error"
	if errors.As(err, &re) {
		safeMessage = re.Message
	}

	switch repository.CodeOf(err) {
	case repository.ErrNotFound:
		writeJSON(w, http.StatusNotFound, Fail(safeMessage))
	case repository.ErrInvalidStatus, repository.ErrInvalidCertificateType:
		writeJSON(w, http.StatusBadRequest, Fail(safeMessage))
	default:
		logger.Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
	}
}
