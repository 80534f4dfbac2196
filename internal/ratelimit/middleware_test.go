package ratelimit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welfarehub/internal/ratelimit"
	id "welfarehub/pkg/domain"
	"welfarehub/pkg/testutil"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*ratelimit.Result, error) {
	return nil, errors.New("redis: connection refused")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	policy := ratelimit.Policy{Limit: 2, Window: time.Minute}

	testutil.Given(t, "a limit of two requests per minute", func(t *testing.T) {
		store := ratelimit.NewInMemory(func() time.Time { return now })
		handler := ratelimit.Middleware(store, policy, logger)(okHandler())
		userID := id.NewUserID().String()

		testutil.When(t, "a user exceeds the limit", func(t *testing.T) {
			for range 2 {
				req := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/recommendations"), userID)
				require.Equal(t, http.StatusNoContent, testutil.DoRequest(handler, req).Code)
			}
			req := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/recommendations"), userID)
			rr := testutil.DoRequest(handler, req)

			testutil.Then(t, "the request is rejected with retry hints", func(t *testing.T) {
				assert.Equal(t, http.StatusTooManyRequests, rr.Code)
				assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
				assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
				assert.Equal(t, "60", rr.Header().Get("Retry-After"))
				assert.JSONEq(t, `{"error":"rate_limit_exceeded","message":"Too many requests. Please try again later.","retry_after":60}`, rr.Body.String())
			})
		})

		testutil.When(t, "a different user calls", func(t *testing.T) {
			req := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/recommendations"), id.NewUserID().String())
			rr := testutil.DoRequest(handler, req)

			testutil.Then(t, "their own window applies", func(t *testing.T) {
				assert.Equal(t, http.StatusNoContent, rr.Code)
				assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))
			})
		})
	})

	testutil.Given(t, "a store that is unavailable", func(t *testing.T) {
		handler := ratelimit.Middleware(failingStore{}, policy, logger)(okHandler())

		testutil.Then(t, "requests are let through", func(t *testing.T) {
			rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/recommendations"))
			assert.Equal(t, http.StatusNoContent, rr.Code)
		})
	})

	testutil.Given(t, "a disabled policy", func(t *testing.T) {
		handler := ratelimit.Middleware(failingStore{}, ratelimit.Policy{}, logger)(okHandler())

		testutil.Then(t, "the store is never consulted", func(t *testing.T) {
			rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/recommendations"))
			assert.Equal(t, http.StatusNoContent, rr.Code)
			assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
		})
	})
}
