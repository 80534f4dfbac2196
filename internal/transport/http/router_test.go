package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welfarehub/internal/platform/metrics"
	"welfarehub/internal/ratelimit"
	id "welfarehub/pkg/domain"
	audit "welfarehub/pkg/platform/audit"
	"welfarehub/pkg/platform/httputil"
	authmw "welfarehub/pkg/platform/middleware/auth"
	"welfarehub/pkg/requestcontext"
	"welfarehub/pkg/testutil"
)

type stubValidator struct {
	userID id.UserID
}

func (v stubValidator) ValidateToken(token string) (*authmw.JWTClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &authmw.JWTClaims{UserID: v.userID.String()}, nil
}

type echoModule struct{}

func (echoModule) Register(r chi.Router) {
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"user_id": requestcontext.UserID(r.Context()).String()})
	})
}

func (echoModule) RegisterAdmin(r chi.Router) {
	r.Post("/admin/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func newTestRouter(checks map[string]HealthCheck) (http.Handler, id.UserID) {
	userID := id.NewUserID()
	return NewRouter(Deps{
		Modules:      []Module{echoModule{}},
		Validator:    stubValidator{userID: userID},
		AdminToken:   "secret",
		Metrics:      metrics.NewWith(prometheus.NewRegistry()),
		HealthChecks: checks,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}), userID
}

func TestRouter(t *testing.T) {
	router, userID := newTestRouter(nil)

	t.Run("user routes require a bearer token", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/whoami"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		req := testutil.NewRequest(t, http.MethodGet, "/whoami")
		req.Header.Set("Authorization", "Bearer good")
		rr = testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"user_id":"`+userID.String()+`"}`, rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("admin routes require the admin token", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPost, "/admin/ping")
		req.Header.Set("Authorization", "Bearer good")
		assert.Equal(t, http.StatusForbidden, testutil.DoRequest(router, req).Code)

		req = testutil.NewRequest(t, http.MethodPost, "/admin/ping")
		req.Header.Set("X-Admin-Token", "secret")
		assert.Equal(t, http.StatusNoContent, testutil.DoRequest(router, req).Code)
	})

	t.Run("health is public", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestHealthDegraded(t *testing.T) {
	router, _ := newTestRouter(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"up","redis":"down"}}`, rr.Body.String())
}

func TestRouterRateLimitsUserRoutes(t *testing.T) {
	router := NewRouter(Deps{
		Modules:         []Module{echoModule{}},
		Validator:       stubValidator{userID: id.NewUserID()},
		AdminToken:      "secret",
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		RateLimiter:     ratelimit.NewInMemory(nil),
		RateLimitPolicy: ratelimit.Policy{Limit: 1, Window: time.Minute},
	})
	call := func() int {
		req := testutil.NewRequest(t, http.MethodGet, "/whoami")
		req.Header.Set("Authorization", "Bearer good")
		return testutil.DoRequest(router, req).Code
	}
	assert.Equal(t, http.StatusOK, call())
	assert.Equal(t, http.StatusTooManyRequests, call())

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
	assert.Equal(t, http.StatusOK, rr.Code, "health is not limited")
}

type recordingAuditor struct {
	events []audit.Event
}

func (r *recordingAuditor) Emit(_ context.Context, e audit.Event) {
	r.events = append(r.events, e)
}

func TestRouterAuditsAdminRequests(t *testing.T) {
	auditor := &recordingAuditor{}
	router := NewRouter(Deps{
		Modules:    []Module{echoModule{}},
		Validator:  stubValidator{userID: id.NewUserID()},
		AdminToken: "secret",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Auditor:    auditor,
	})

	req := testutil.NewRequest(t, http.MethodPost, "/admin/ping")
	req.Header.Set("X-Admin-Token", "wrong")
	require.Equal(t, http.StatusForbidden, testutil.DoRequest(router, req).Code)
	assert.Empty(t, auditor.events, "rejected calls are not audited")

	req = testutil.NewRequest(t, http.MethodPost, "/admin/ping")
	req.Header.Set("X-Admin-Token", "secret")
	require.Equal(t, http.StatusNoContent, testutil.DoRequest(router, req).Code)
	require.Len(t, auditor.events, 1)
	assert.Equal(t, audit.ActionAdminRequest, auditor.events[0].Action)
	assert.Equal(t, "POST /admin/ping", auditor.events[0].Subject)
	assert.Equal(t, "204", auditor.events[0].Outcome)
}
