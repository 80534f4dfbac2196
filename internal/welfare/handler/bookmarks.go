package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"welfarehub/internal/welfare/bookmark"
	"welfarehub/internal/welfare/models"
	id "welfarehub/pkg/domain"
	dErrors "welfarehub/pkg/domain-errors"
	"welfarehub/pkg/platform/httputil"
	"welfarehub/pkg/requestcontext"
)

type CreateBookmarkRequest struct {
	BenefitID         string `json:"benefit_id"`
	ExternalBenefitID string `json:"external_benefit_id"`
	Memo              string `json:"memo"`
}

func (req *CreateBookmarkRequest) Validate() error {
	req.BenefitID = strings.TrimSpace(req.BenefitID)
	req.ExternalBenefitID = strings.TrimSpace(req.ExternalBenefitID)
	if (req.BenefitID == "") == (req.ExternalBenefitID == "") {
		return dErrors.New(dErrors.CodeValidation, "exactly one of benefit_id or external_benefit_id is required")
	}
	if len(req.ExternalBenefitID) > 128 {
		return dErrors.New(dErrors.CodeValidation, "external_benefit_id is too long")
	}
	return nil
}

type UpdateBookmarkRequest struct {
	Memo *string `json:"memo"`
}

func (req *UpdateBookmarkRequest) Validate() error {
	if req.Memo == nil {
		return dErrors.New(dErrors.CodeValidation, "memo is required")
	}
	return nil
}

type bookmarkList struct {
	Bookmarks []*models.Bookmark `json:"bookmarks"`
}

func (h *Handler) HandleListBookmarks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	list, err := h.bookmarks.List(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "failed to list bookmarks", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bookmarkList{Bookmarks: list})
}

func (h *Handler) HandleCreateBookmark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateBookmarkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	target := bookmark.Target{ExternalBenefitID: req.ExternalBenefitID}
	if req.BenefitID != "" {
		benefitID, err := id.ParseBenefitID(req.BenefitID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		target.BenefitID = &benefitID
	}

	b, err := h.bookmarks.Create(ctx, userID, target, req.Memo)
	if err != nil {
		h.logFailure(ctx, "failed to create bookmark", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) HandleUpdateBookmark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	bookmarkID, err := id.ParseBookmarkID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateBookmarkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	b, err := h.bookmarks.UpdateMemo(ctx, userID, bookmarkID, *req.Memo)
	if err != nil {
		h.logFailure(ctx, "failed to update bookmark", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) HandleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	bookmarkID, err := id.ParseBookmarkID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.bookmarks.Delete(ctx, userID, bookmarkID); err != nil {
		h.logFailure(ctx, "failed to delete bookmark", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
