package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welfarehub/internal/lifecycle/models"
	"welfarehub/internal/lifecycle/service"
	"welfarehub/internal/lifecycle/store"
	id "welfarehub/pkg/domain"
	"welfarehub/pkg/testutil"
)

type noopRefresher struct{}

func (noopRefresher) Refresh(context.Context, id.UserID) error { return nil }

func setup(t *testing.T) (chi.Router, *service.Service, time.Time) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), noopRefresher{}, service.WithLogger(logger))
	r := chi.NewRouter()
	h := New(svc, logger)
	h.Register(r)
	h.RegisterAdmin(r)
	return r, svc, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
}

func TestHandleUpcoming(t *testing.T) {
	router, svc, now := setup(t)
	userID := id.NewUserID()
	ctx := context.Background()
	for _, days := range []int{3, 5} {
		_, err := svc.Record(ctx, service.NewEvent{
			UserID:    userID,
			Type:      string(models.EventDaycareEligible),
			EventDate: now.AddDate(0, 0, days),
			ChildName: "첫째",
		})
		require.NoError(t, err)
	}

	t.Run("lists the caller's upcoming events", func(t *testing.T) {
		req := testutil.WithTime(testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/lifecycle/events/upcoming"), userID.String()), now)
		rr := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rr.Code)

		body := testutil.DecodeJSON[UpcomingResponse](t, rr)
		assert.Equal(t, "2026-09-01", body.AsOf)
		require.Len(t, body.Events, 1)
		assert.Equal(t, 3, body.Events[0].DaysUntil)
	})

	t.Run("as_of overrides the request date", func(t *testing.T) {
		req := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/lifecycle/events/upcoming?as_of=2026-09-05"), userID.String())
		rr := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rr.Code)

		body := testutil.DecodeJSON[UpcomingResponse](t, rr)
		require.Len(t, body.Events, 1)
		assert.Equal(t, 1, body.Events[0].DaysUntil)
	})

	t.Run("rejects malformed as_of", func(t *testing.T) {
		req := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/lifecycle/events/upcoming?as_of=tomorrow"), userID.String())
		assert.Equal(t, http.StatusBadRequest, testutil.DoRequest(router, req).Code)
	})

	t.Run("requires a user", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/lifecycle/events/upcoming"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestHandleSweep(t *testing.T) {
	router, svc, now := setup(t)
	_, err := svc.Record(context.Background(), service.NewEvent{
		UserID:    id.NewUserID(),
		Type:      string(models.EventBirth),
		EventDate: now.AddDate(0, 0, -1),
	})
	require.NoError(t, err)

	rr := testutil.DoRequest(router, testutil.WithTime(testutil.NewRequest(t, http.MethodPost, "/admin/lifecycle/sweep"), now))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"completed"}`, rr.Body.String())

	due, err := svc.FindDueEvents(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, due)
}
