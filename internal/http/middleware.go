package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/metrics"
	"github.com/cayden6ix/certidoes-app-sub002/internal/service"
)

// ============================================
// 鉴权
// ============================================

type contextKey string

const claimsContextKey contextKey = "auth_claims"

// WithClaims 把令牌声明放进请求上下文
func WithClaims(ctx context.Context, claims *service.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFrom 从请求上下文取令牌声明
func ClaimsFrom(ctx context.Context) (*service.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*service.TokenClaims)
	return claims, ok
}

// AuthMiddleware Bearer访问令牌鉴权
type AuthMiddleware struct {
	tokens *service.TokenManager
}

// NewAuthMiddleware 创建鉴权中间件
func NewAuthMiddleware(tokens *service.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Wrap 校验Authorization头里的访问令牌，通过后把声明放进上下文
// 过期返回60401封装（前端拦截器据此走刷新流程）
func (m *AuthMiddleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			writeJSON(w, http.StatusUnauthorized, Fail("missing bearer token"))
			return
		}

		claims, err := m.tokens.Validate(token)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				writeJSON(w, http.StatusUnauthorized, TokenExpired())
				return
			}
			writeJSON(w, http.StatusUnauthorized, Fail("invalid token"))
			return
		}
		if claims.TokenType != service.TokenTypeAccess {
			writeJSON(w, http.StatusUnauthorized, Fail("invalid token"))
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}

// RequireRole 在Wrap之后使用，限制路由只对指定角色开放
func (m *AuthMiddleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return m.Wrap(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok || claims.Role != role {
			writeJSON(w, http.StatusForbidden, Fail("insufficient role"))
			return
		}
		next(w, r)
	})
}

// ============================================
// 访问日志与指标
// ============================================

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// RequestLogger 最外层中间件：访问日志 + Prometheus指标
func RequestLogger(logger *zap.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		route := routeLabel(r.URL.Path)
		m.ObserveRequest(r.Method, route, rec.status, duration)
		logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", duration))
	})
}

// routeLabel 把资源id折叠掉，控制指标label基数
func routeLabel(path string) string {
	switch {
	case path == "/api/v1/certificates/export":
		return path
	case strings.HasPrefix(path, "/api/v1/certificates/"):
		return "/api/v1/certificates/:id"
	case strings.HasPrefix(path, "/api/v1/tags/"):
		return "/api/v1/tags/:id"
	}
	return path
}
