package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAuthRoutes 认证路由
// login/refresh/logout 开放；me 与 logout-all 需要访问令牌
func (r *Router) RegisterAuthRoutes(h *AuthHandler, auth *AuthMiddleware) {
	r.Handle("/api/v1/auth/login", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Login(w, req)
	})

	r.Handle("/api/v1/auth/refresh", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Refresh(w, req)
	})

	r.Handle("/api/v1/auth/logout", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Logout(w, req)
	})

	r.Handle("/api/v1/auth/logout-all", auth.Wrap(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.LogoutAll(w, req)
	}))

	r.Handle("/api/v1/auth/me", auth.Wrap(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Me(w, req)
	}))
}

// RegisterCertificateRoutes 证书路由（全部需要访问令牌）
func (r *Router) RegisterCertificateRoutes(h *CertificatesHandler, auth *AuthMiddleware) {
	// list + create
	r.Handle("/api/v1/certificates", auth.Wrap(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	// export（精确pattern优先于下面的前缀pattern）
	r.Handle("/api/v1/certificates/export", auth.Wrap(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Export(w, req)
	}))

	// certificates/{id}
	r.Handle("/api/v1/certificates/", auth.Wrap(func(w http.ResponseWriter, req *http.Request) {
		id, ok := pathID(req.URL.Path, "/api/v1/certificates/")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodGet:
			h.GetByID(w, req, id)
		case http.MethodPatch:
			h.Update(w, req, id)
		case http.MethodDelete:
			h.Delete(w, req, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

// RegisterLookupRoutes 目录路由（全部需要访问令牌）
func (r *Router) RegisterLookupRoutes(h *LookupHandler, auth *AuthMiddleware) {
	r.Handle("/api/v1/certificate-types", auth.Wrap(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListCertificateTypes(w, req)
	}))

	r.Handle("/api/v1/statuses", auth.Wrap(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListStatuses(w, req)
	}))

	r.Handle("/api/v1/payment-types", auth.Wrap(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListPaymentTypes(w, req)
	}))

	r.Handle("/api/v1/tags", auth.Wrap(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.ListTags(w, req)
		case http.MethodPost:
			h.UpsertTag(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	// tags/{id}
	r.Handle("/api/v1/tags/", auth.Wrap(func(w http.ResponseWriter, req *http.Request) {
		id, ok := pathID(req.URL.Path, "/api/v1/tags/")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.DeleteTag(w, req, id)
	}))
}

// RegisterOpsRoutes 健康检查与指标（不鉴权）
func (r *Router) RegisterOpsRoutes(metricsHandler http.Handler) {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ok"}))
	})
	r.HandleHandler("/metrics", metricsHandler)
}
