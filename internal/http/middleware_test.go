package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
	"github.com/cayden6ix/certidoes-app-sub002/internal/service"
)

func testTokenManager() *service.TokenManager {
	return service.NewTokenManager("test-secret", "certidoes-api")
}

func signTestToken(t *testing.T, tokens *service.TokenManager, role, tokenType string, ttl time.Duration) string {
	t.Helper()
	signed, _, err := tokens.Generate(&domain.User{
		UserID: "user-1",
		Email:  "clerk@certidoes.local",
		Role:   role,
		Status: "active",
	}, tokenType, ttl)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func TestAuthWrap_ValidTokenPutsClaimsInContext(t *testing.T) {
	tokens := testTokenManager()
	mw := NewAuthMiddleware(tokens)

	var gotUserID, gotRole string
	handler := mw.Wrap(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			t.Fatal("expected claims in request context")
		}
		gotUserID = claims.UserID
		gotRole = claims.Role
		writeJSON(w, http.StatusOK, Ok(map[string]any{"ok": true}))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/certificates", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, tokens, "clerk", service.TokenTypeAccess, time.Minute))
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotUserID != "user-1" || gotRole != "clerk" {
		t.Fatalf("expected claims user-1/clerk, got %s/%s", gotUserID, gotRole)
	}
	if !strings.Contains(w.Body.String(), `"code":2000`) {
		t.Fatalf("expected wrapper code=2000, got: %s", w.Body.String())
	}
}

func TestAuthWrap_MissingOrMalformedHeader(t *testing.T) {
	mw := NewAuthMiddleware(testTokenManager())
	handler := mw.Wrap(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run without a bearer token")
	})

	// no Authorization header at all
	req := httptest.NewRequest(http.MethodGet, "/api/v1/certificates", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "missing bearer token") {
		t.Fatalf("expected 401 missing bearer token, got %d: %s", w.Code, w.Body.String())
	}

	// wrong scheme
	req = httptest.NewRequest(http.MethodGet, "/api/v1/certificates", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "missing bearer token") {
		t.Fatalf("expected 401 for non-bearer scheme, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthWrap_ExpiredTokenReturns60401(t *testing.T) {
	tokens := testTokenManager()
	mw := NewAuthMiddleware(tokens)
	handler := mw.Wrap(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run with an expired token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/certificates", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, tokens, "clerk", service.TokenTypeAccess, -time.Minute))
	w := httptest.NewRecorder()
	handler(w, req)

	// the frontend interceptor keys its refresh flow off code=60401
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"code":60401`) {
		t.Fatalf("expected code=60401 for expired token, got: %s", w.Body.String())
	}
}

func TestAuthWrap_RejectsRefreshToken(t *testing.T) {
	tokens := testTokenManager()
	mw := NewAuthMiddleware(tokens)
	handler := mw.Wrap(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("refresh tokens must not pass access auth")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/certificates", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, tokens, "clerk", service.TokenTypeRefresh, time.Minute))
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "invalid token") {
		t.Fatalf("expected 401 invalid token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthWrap_GarbageToken(t *testing.T) {
	mw := NewAuthMiddleware(testTokenManager())
	handler := mw.Wrap(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("garbage tokens must not pass auth")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/certificates", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "invalid token") {
		t.Fatalf("expected 401 invalid token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	tokens := testTokenManager()
	mw := NewAuthMiddleware(tokens)

	called := false
	handler := mw.RequireRole("admin", func(w http.ResponseWriter, r *http.Request) {
		called = true
		writeJSON(w, http.StatusOK, Ok(map[string]any{"ok": true}))
	})

	// clerk hits an admin-only route
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/certificates/cert-1", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, tokens, "clerk", service.TokenTypeAccess, time.Minute))
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusForbidden || !strings.Contains(w.Body.String(), "insufficient role") {
		t.Fatalf("expected 403 insufficient role, got %d: %s", w.Code, w.Body.String())
	}
	if called {
		t.Fatal("next handler must not run for the wrong role")
	}

	// admin passes
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/certificates/cert-1", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, tokens, "admin", service.TokenTypeAccess, time.Minute))
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK || !called {
		t.Fatalf("expected admin to pass, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouteLabel_CollapsesResourceIDs(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/api/v1/certificates", "/api/v1/certificates"},
		{"/api/v1/certificates/export", "/api/v1/certificates/export"},
		{"/api/v1/certificates/7c1e9a2b", "/api/v1/certificates/:id"},
		{"/api/v1/tags/tag-9", "/api/v1/tags/:id"},
		{"/api/v1/tags", "/api/v1/tags"},
		{"/healthz", "/healthz"},
	}
	for _, tc := range cases {
		if got := routeLabel(tc.path); got != tc.want {
			t.Errorf("routeLabel(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestRequestLogger_PassesStatusThrough(t *testing.T) {
	// nil metrics keeps the test off the global Prometheus registry
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, Fail("certificate not found"))
	})
	handler := RequestLogger(zap.NewNop(), nil, inner)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/certificates/missing", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected wrapped handler status 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "certificate not found") {
		t.Fatalf("expected body to pass through, got: %s", w.Body.String())
	}
}
