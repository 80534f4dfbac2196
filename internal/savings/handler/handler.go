// Package handler exposes savings product recommendations over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"welfarehub/internal/savings/models"
	"welfarehub/internal/savings/service"
	id "welfarehub/pkg/domain"
	dErrors "welfarehub/pkg/domain-errors"
	"welfarehub/pkg/platform/httputil"
	"welfarehub/pkg/requestcontext"
)

const defaultPageSize = 20

type Service interface {
	RecommendSavings(ctx context.Context, q service.Query) (*service.Page, error)
	Save(ctx context.Context, p *models.Product) error
}

type SaveProductRequest struct {
	Name             string  `json:"name"`
	Bank             string  `json:"bank"`
	TargetCustomer   string  `json:"target_customer"`
	MinMonthlyAmount *int64  `json:"min_monthly_amount"`
	MaxMonthlyAmount *int64  `json:"max_monthly_amount"`
	InterestRate     float64 `json:"interest_rate"`
}

func (req *SaveProductRequest) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.Bank = strings.TrimSpace(req.Bank)
	req.TargetCustomer = strings.TrimSpace(req.TargetCustomer)
	if req.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/savings/recommendations", h.HandleRecommend)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/savings/products", h.HandleSaveProduct)
}

func (h *Handler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := parseQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.RecommendSavings(ctx, q)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to recommend savings products",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleSaveProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[SaveProductRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p := &models.Product{
		ID:               id.NewProductID(),
		Name:             req.Name,
		Bank:             req.Bank,
		TargetCustomer:   req.TargetCustomer,
		MinMonthlyAmount: req.MinMonthlyAmount,
		MaxMonthlyAmount: req.MaxMonthlyAmount,
		InterestRate:     req.InterestRate,
	}
	if err := h.service.Save(ctx, p); err != nil {
		h.logger.WarnContext(ctx, "failed to save savings product", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func parseQuery(r *http.Request) (service.Query, error) {
	page, err := httputil.QueryInt(r, "page", 0)
	if err != nil {
		return service.Query{}, err
	}
	size, err := httputil.QueryInt(r, "size", defaultPageSize)
	if err != nil {
		return service.Query{}, err
	}
	q := service.Query{
		TargetCustomer: r.URL.Query().Get("target"),
		Page:           page,
		Size:           size,
	}
	if raw := r.URL.Query().Get("monthly_amount"); raw != "" {
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return service.Query{}, dErrors.New(dErrors.CodeValidation, "monthly_amount must be an integer")
		}
		q.MonthlyAmount = &amount
	}
	return q, nil
}
