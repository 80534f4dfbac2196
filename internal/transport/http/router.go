// Package httptransport composes the domain handlers into one chi router with
// the shared middleware stack.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"welfarehub/internal/platform/metrics"
	"welfarehub/internal/ratelimit"
	audit "welfarehub/pkg/platform/audit"
	"welfarehub/pkg/platform/httputil"
	adminmw "welfarehub/pkg/platform/middleware/admin"
	authmw "welfarehub/pkg/platform/middleware/auth"
	request "welfarehub/pkg/platform/middleware/request"
	"welfarehub/pkg/platform/middleware/requesttime"
)

// Module is a domain handler that mounts user and admin routes.
type Module interface {
	Register(r chi.Router)
	RegisterAdmin(r chi.Router)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Modules       []Module
	Validator     authmw.JWTValidator
	AdminToken    string
	Metrics       *metrics.Metrics
	MetricsHandle http.Handler
	HealthChecks  map[string]HealthCheck
	Logger        *slog.Logger

	// RateLimiter is optional; when nil user routes are unlimited.
	RateLimiter     ratelimit.Store
	RateLimitPolicy ratelimit.Policy

	// Auditor records every admin request; optional.
	Auditor audit.Emitter
}

// NewRouter mounts every module. User routes require a bearer token; admin
// routes require X-Admin-Token.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requesttime.Middleware)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Get("/health", healthHandler(d.HealthChecks, d.Logger))
	if d.MetricsHandle != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandle)
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.Validator, d.Logger))
		if d.RateLimiter != nil {
			r.Use(ratelimit.Middleware(d.RateLimiter, d.RateLimitPolicy, d.Logger))
		}
		for _, m := range d.Modules {
			m.Register(r)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(d.AdminToken, d.Logger))
		if d.Auditor != nil {
			r.Use(auditAdmin(d.Auditor))
		}
		for _, m := range d.Modules {
			m.RegisterAdmin(r)
		}
	})
	return r
}

// auditAdmin records authorized admin calls with their response status.
func auditAdmin(auditor audit.Emitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			auditor.Emit(r.Context(), audit.Event{
				Action:  audit.ActionAdminRequest,
				ActorID: "admin-token",
				Subject: r.Method + " " + r.URL.Path,
				Outcome: strconv.Itoa(status),
			})
		})
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"request_id", request.GetRequestID(ctx),
					"check", name,
					"error", err,
				)
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "up"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
