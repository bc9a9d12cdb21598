package app

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/unrolled/secure"

	"github.com/gerai-erp/gerai/internal/observability"
	"github.com/gerai-erp/gerai/internal/platform/httpx"
	"github.com/gerai-erp/gerai/internal/shared"
	"github.com/gerai-erp/gerai/internal/stores"
)

// Request headers carrying tenant scope. The API gateway authenticates the
// caller and forwards the resolved identifiers here.
const (
	HeaderStoreID = "X-Store-ID"
	HeaderUserID  = "X-User-ID"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the Gerai middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}
	limit := 120
	if cfg.Config != nil && cfg.Config.RateLimitPerMinute > 0 {
		limit = cfg.Config.RateLimitPerMinute
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			return cfg.Metrics.Middleware(next)
		})
	}
	return middlewares
}

// TenantScope returns middleware that resolves the X-Store-ID and X-User-ID
// headers into the request context. Unknown or deactivated stores are rejected
// before any handler runs.
func TenantScope(resolver *stores.Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			storeID, err := uuid.Parse(r.Header.Get(HeaderStoreID))
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "missing or malformed X-Store-ID header")
				return
			}
			userID, err := uuid.Parse(r.Header.Get(HeaderUserID))
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "missing or malformed X-User-ID header")
				return
			}

			store, err := resolver.Resolve(r.Context(), storeID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					httpx.Problem(w, http.StatusForbidden, "Forbidden", "unknown or inactive store")
					return
				}
				logger.Error("resolve store", slog.Any("error", err))
				httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "")
				return
			}

			ctx := shared.ContextWithStore(r.Context(), store.ID)
			ctx = shared.ContextWithActor(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
