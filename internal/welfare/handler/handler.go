// Package handler exposes the welfare recommendation, catalog, bookmark and
// admin sync endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"welfarehub/internal/welfare/bookmark"
	"welfarehub/internal/welfare/models"
	"welfarehub/internal/welfare/recommend"
	id "welfarehub/pkg/domain"
	dErrors "welfarehub/pkg/domain-errors"
	"welfarehub/pkg/platform/httputil"
	"welfarehub/pkg/requestcontext"
)

const defaultPageSize = 20

type RecommendationService interface {
	GetPersonalizedRecommendations(ctx context.Context, userID id.UserID, page, size int) (*recommend.RecommendationPage, error)
	Browse(ctx context.Context, q recommend.BrowseQuery) (*recommend.RecommendationPage, error)
	GetBenefit(ctx context.Context, benefitID id.BenefitID) (*models.BenefitRecord, error)
}

type BookmarkService interface {
	Create(ctx context.Context, userID id.UserID, target bookmark.Target, memo string) (*models.Bookmark, error)
	UpdateMemo(ctx context.Context, userID id.UserID, bookmarkID id.BookmarkID, memo string) (*models.Bookmark, error)
	Delete(ctx context.Context, userID id.UserID, bookmarkID id.BookmarkID) error
	List(ctx context.Context, userID id.UserID) ([]*models.Bookmark, error)
}

// CatalogSyncer starts background syncs. Start calls return a conflict error
// when the scope already has a run in progress.
type CatalogSyncer interface {
	Enabled() bool
	StartCentral(ctx context.Context) error
	StartLocal(ctx context.Context, regionCode, subRegionCode string) error
}

type Handler struct {
	recommendations RecommendationService
	bookmarks       BookmarkService
	syncer          CatalogSyncer
	logger          *slog.Logger
}

func New(recommendations RecommendationService, bookmarks BookmarkService, syncer CatalogSyncer, logger *slog.Logger) *Handler {
	return &Handler{
		recommendations: recommendations,
		bookmarks:       bookmarks,
		syncer:          syncer,
		logger:          logger,
	}
}

// Register mounts the user routes. Callers apply authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/welfare/recommendations", h.HandleRecommendations)
	r.Get("/welfare/benefits", h.HandleListBenefits)
	r.Get("/welfare/benefits/{id}", h.HandleGetBenefit)
	r.Get("/welfare/bookmarks", h.HandleListBookmarks)
	r.Post("/welfare/bookmarks", h.HandleCreateBookmark)
	r.Patch("/welfare/bookmarks/{id}", h.HandleUpdateBookmark)
	r.Delete("/welfare/bookmarks/{id}", h.HandleDeleteBookmark)
}

// RegisterAdmin mounts the sync triggers. Callers apply admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/welfare/sync/central", h.HandleSyncCentral)
	r.Post("/admin/welfare/sync/local", h.HandleSyncLocal)
}

func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	page, size, err := pageParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.recommendations.GetPersonalizedRecommendations(ctx, userID, page, size)
	if err != nil {
		h.logFailure(ctx, "failed to get recommendations", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleListBenefits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, size, err := pageParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	q := r.URL.Query()
	res, err := h.recommendations.Browse(ctx, recommend.BrowseQuery{
		Region:  strings.TrimSpace(q.Get("region")),
		Keyword: strings.TrimSpace(q.Get("keyword")),
		Page:    page,
		Size:    size,
	})
	if err != nil {
		h.logFailure(ctx, "failed to browse benefits", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleGetBenefit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	benefitID, err := id.ParseBenefitID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.recommendations.GetBenefit(ctx, benefitID)
	if err != nil {
		h.logFailure(ctx, "failed to get benefit", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// requireUser reads the authenticated user. The auth middleware guarantees
// it; a missing value is a wiring error reported as unauthorized.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID := requestcontext.UserID(r.Context())
	if userID.IsNil() {
		h.logger.ErrorContext(r.Context(), "user missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return userID, true
}

func (h *Handler) logFailure(ctx context.Context, msg, requestID string, err error) {
	if de, ok := dErrors.As(err); ok && httputil.StatusFor(de.Code) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
		return
	}
	h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
}

func pageParams(r *http.Request) (int, int, error) {
	page, err := httputil.QueryInt(r, "page", 0)
	if err != nil {
		return 0, 0, err
	}
	size, err := httputil.QueryInt(r, "size", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if page < 0 {
		return 0, 0, dErrors.New(dErrors.CodeValidation, "page must be zero or greater")
	}
	if size <= 0 {
		return 0, 0, dErrors.New(dErrors.CodeValidation, "size must be greater than zero")
	}
	return page, size, nil
}
