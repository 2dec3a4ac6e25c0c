package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/service"
)

// AuthHandler 认证授权 Handler
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler 创建认证授权 Handler
func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login 用户登录
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	email := strings.TrimSpace(payload.Email)
	if email == "" || payload.Password == "" {
		writeJSON(w, http.StatusBadRequest, Fail("email and password are required"))
		return
	}

	resp, err := h.authService.Login(ctx, email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, Fail("invalid email or password"))
		case errors.Is(err, service.ErrUserDisabled):
			writeJSON(w, http.StatusUnauthorized, Fail("account disabled"))
		default:
			h.logger.Error("Login failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
		}
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp))
}

// Refresh 刷新令牌对（旧刷新令牌立即作废）
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if payload.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, Fail("refresh_token is required"))
		return
	}

	resp, err := h.authService.Refresh(ctx, payload.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			writeJSON(w, http.StatusUnauthorized, TokenExpired())
		case errors.Is(err, service.ErrInvalidToken):
			writeJSON(w, http.StatusUnauthorized, Fail("invalid refresh token"))
		case errors.Is(err, service.ErrUserDisabled):
			writeJSON(w, http.StatusUnauthorized, Fail("account disabled"))
		default:
			h.logger.Error("Refresh failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
		}
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp))
}

// Logout 登出（作废刷新令牌，幂等）
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	if err := h.authService.Logout(ctx, payload.RefreshToken); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"logged_out": true}))
}

// LogoutAll 作废当前用户的全部会话
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := ClaimsFrom(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Fail("missing bearer token"))
		return
	}

	if err := h.authService.LogoutAll(ctx, claims.UserID); err != nil {
		h.logger.Error("LogoutAll failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"logged_out": true}))
}

// Me 当前登录用户信息
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := ClaimsFrom(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Fail("missing bearer token"))
		return
	}

	info, err := h.authService.CurrentUser(ctx, claims.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(info))
}
