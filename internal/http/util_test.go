package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/repository"
	"github.com/cayden6ix/certidoes-app-sub002/internal/service"
)

func TestPathID(t *testing.T) {
	cases := []struct {
		path   string
		prefix string
		wantID string
		wantOK bool
	}{
		{"/api/v1/certificates/cert-1", "/api/v1/certificates/", "cert-1", true},
		{"/api/v1/tags/tag-9", "/api/v1/tags/", "tag-9", true},
		// bare collection path, nothing after the prefix
		{"/api/v1/certificates/", "/api/v1/certificates/", "", false},
		// extra path segments are not valid ids
		{"/api/v1/certificates/cert-1/tags", "/api/v1/certificates/", "", false},
	}
	for _, tc := range cases {
		id, ok := pathID(tc.path, tc.prefix)
		if id != tc.wantID || ok != tc.wantOK {
			t.Errorf("pathID(%q) = (%q, %v), want (%q, %v)", tc.path, id, ok, tc.wantID, tc.wantOK)
		}
	}
}

func TestParseInt(t *testing.T) {
	if got := parseInt("", 50); got != 50 {
		t.Errorf("empty string should fall back to default, got %d", got)
	}
	if got := parseInt("25", 50); got != 25 {
		t.Errorf("expected 25, got %d", got)
	}
	if got := parseInt("abc", 50); got != 50 {
		t.Errorf("garbage should fall back to default, got %d", got)
	}
	// negative values pass through, clamping lives in the service layer
	if got := parseInt("-5", 0); got != -5 {
		t.Errorf("expected -5, got %d", got)
	}
}

func TestWriteServiceError_StatusMapping(t *testing.T) {
	logger := zap.NewNop()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation error is a 400",
			err:        service.NewValidationError("record_number is required"),
			wantStatus: http.StatusBadRequest,
			wantBody:   "record_number is required",
		},
		{
			name:       "repository NOT_FOUND is a 404",
			err:        repository.NewError(repository.ErrNotFound, "certificate not found", nil),
			wantStatus: http.StatusNotFound,
			wantBody:   "certificate not found",
		},
		{
			name:       "INVALID_STATUS is a 400",
			err:        repository.NewError(repository.ErrInvalidStatus, `status "bogus" does not exist`, nil),
			wantStatus: http.StatusBadRequest,
			wantBody:   `status \"bogus\" does not exist`,
		},
		{
			name:       "INVALID_CERTIFICATE_TYPE is a 400",
			err:        repository.NewError(repository.ErrInvalidCertificateType, "certificate type could not be resolved", nil),
			wantStatus: http.StatusBadRequest,
			wantBody:   "certificate type could not be resolved",
		},
		{
			name:       "edit lock is a 409",
			err:        service.ErrCertificateNotEditable,
			wantStatus: http.StatusConflict,
			wantBody:   "not editable",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeServiceError(w, logger, tc.err)
			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tc.wantBody) {
				t.Fatalf("expected body to contain %q, got: %s", tc.wantBody, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"code":-1`) {
				t.Fatalf("expected error wrapper code=-1, got: %s", w.Body.String())
			}
		})
	}
}

func TestWriteServiceError_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	writeServiceError(w, zap.NewNop(), errors.New("pq: connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "internal error") {
		t.Fatalf("expected generic message, got: %s", body)
	}
	// driver detail stays in the log, never in the response
	if strings.Contains(body, "connection refused") {
		t.Fatalf("internal detail leaked into response: %s", body)
	}
}

func TestWriteServiceError_DatabaseErrorIs500WithSafeMessage(t *testing.T) {
	w := httptest.NewRecorder()
	err := repository.NewError(repository.ErrDatabase, "failed to query certificates", errors.New("pq: timeout"))
	writeServiceError(w, zap.NewNop(), err)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "pq: timeout") {
		t.Fatalf("wrapped driver error leaked into response: %s", w.Body.String())
	}
}
