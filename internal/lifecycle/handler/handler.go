// Package handler exposes lifecycle event queries over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"welfarehub/internal/lifecycle/models"
	id "welfarehub/pkg/domain"
	dErrors "welfarehub/pkg/domain-errors"
	"welfarehub/pkg/platform/httputil"
	"welfarehub/pkg/requestcontext"
)

type Service interface {
	FindUpcomingForUser(ctx context.Context, userID id.UserID, asOf time.Time) ([]models.UpcomingEvent, error)
	ProcessDue(ctx context.Context, now time.Time) error
}

type UpcomingResponse struct {
	AsOf   string                 `json:"as_of"`
	Events []models.UpcomingEvent `json:"events"`
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/lifecycle/events/upcoming", h.HandleUpcoming)
}

// RegisterAdmin mounts a manual trigger for the due-event sweep.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/lifecycle/sweep", h.HandleSweep)
}

func (h *Handler) HandleUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		h.logger.ErrorContext(ctx, "user missing from context despite auth middleware", "request_id", requestID)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	asOf := requestcontext.Now(ctx)
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "as_of must be YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}

	events, err := h.service.FindUpcomingForUser(ctx, userID, asOf)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list upcoming lifecycle events", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, UpcomingResponse{
		AsOf:   models.DateOf(asOf).Format(time.DateOnly),
		Events: events,
	})
}

// HandleSweep runs the sweep synchronously. Failed users stay unprocessed
// for the next run and are only reported as a partial status.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	status := "completed"
	if err := h.service.ProcessDue(ctx, requestcontext.Now(ctx)); err != nil {
		h.logger.WarnContext(ctx, "lifecycle sweep had failures",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		status = "partial"
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}
