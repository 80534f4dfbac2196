package handler

import (
	"net/http"
	"strings"

	"welfarehub/internal/welfare/models"
	dErrors "welfarehub/pkg/domain-errors"
	"welfarehub/pkg/platform/httputil"
	"welfarehub/pkg/requestcontext"
)

type SyncLocalRequest struct {
	RegionCode    string `json:"region_code"`
	SubRegionCode string `json:"sub_region_code"`
}

func (req *SyncLocalRequest) Validate() error {
	req.RegionCode = models.NormalizeRegion(req.RegionCode)
	req.SubRegionCode = strings.TrimSpace(req.SubRegionCode)
	if req.RegionCode == "" {
		return dErrors.New(dErrors.CodeValidation, "region_code is required")
	}
	return nil
}

// SyncStarted is the 202 body for an accepted sync request.
type SyncStarted struct {
	Status    string `json:"status"`
	Source    string `json:"source"`
	Region    string `json:"region,omitempty"`
	SubRegion string `json:"sub_region,omitempty"`
}

// HandleSyncCentral starts a central sync in the background. A sync already
// running for the scope yields 409.
func (h *Handler) HandleSyncCentral(w http.ResponseWriter, r *http.Request) {
	if !h.syncEnabled(w, r) {
		return
	}
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if err := h.syncer.StartCentral(ctx); err != nil {
		h.logger.WarnContext(ctx, "central sync not started", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "admin triggered central sync", "request_id", requestID)
	httputil.WriteJSON(w, http.StatusAccepted, SyncStarted{Status: "started", Source: "central"})
}

func (h *Handler) HandleSyncLocal(w http.ResponseWriter, r *http.Request) {
	if !h.syncEnabled(w, r) {
		return
	}
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[SyncLocalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.syncer.StartLocal(ctx, req.RegionCode, req.SubRegionCode); err != nil {
		h.logger.WarnContext(ctx, "local sync not started",
			"request_id", requestID,
			"region", req.RegionCode,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "admin triggered local sync",
		"request_id", requestID,
		"region", req.RegionCode,
		"sub_region", req.SubRegionCode,
	)
	httputil.WriteJSON(w, http.StatusAccepted, SyncStarted{
		Status:    "started",
		Source:    "local",
		Region:    req.RegionCode,
		SubRegion: req.SubRegionCode,
	})
}

func (h *Handler) syncEnabled(w http.ResponseWriter, r *http.Request) bool {
	if h.syncer != nil && h.syncer.Enabled() {
		return true
	}
	h.logger.WarnContext(r.Context(), "sync requested while disabled",
		"request_id", requestcontext.RequestID(r.Context()),
	)
	httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "welfare sync is disabled"))
	return false
}
