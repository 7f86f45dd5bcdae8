package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
	"github.com/ekaya-inc/ekaya-analyst/pkg/services"
)

// AnalyticsHandler serves the dashboard endpoints.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
	logger           *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// RegisterRoutes registers the analytics handler's routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stats", h.Stats)
	mux.HandleFunc("GET /api/invoice-trends", h.InvoiceTrends)
	mux.HandleFunc("GET /api/vendors/top10", h.TopVendors)
	mux.HandleFunc("GET /api/category-spend", h.CategorySpend)
	mux.HandleFunc("GET /api/cash-outflow", h.CashOutflow)
	mux.HandleFunc("GET /api/invoices", h.ListInvoices)
}

// Stats handles GET /api/stats
func (h *AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analyticsService.Stats(r.Context())
	h.respond(w, stats, err, "stats_failed", "Failed to fetch statistics")
}

// InvoiceTrends handles GET /api/invoice-trends
func (h *AnalyticsHandler) InvoiceTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := h.analyticsService.InvoiceTrends(r.Context())
	h.respond(w, trends, err, "invoice_trends_failed", "Failed to fetch invoice trends")
}

// TopVendors handles GET /api/vendors/top10
func (h *AnalyticsHandler) TopVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.analyticsService.TopVendors(r.Context())
	h.respond(w, vendors, err, "top_vendors_failed", "Failed to fetch top vendors")
}

// CategorySpend handles GET /api/category-spend
func (h *AnalyticsHandler) CategorySpend(w http.ResponseWriter, r *http.Request) {
	spend, err := h.analyticsService.CategorySpend(r.Context())
	h.respond(w, spend, err, "category_spend_failed", "Failed to fetch category spend")
}

// CashOutflow handles GET /api/cash-outflow
func (h *AnalyticsHandler) CashOutflow(w http.ResponseWriter, r *http.Request) {
	outflow, err := h.analyticsService.CashOutflow(r.Context())
	h.respond(w, outflow, err, "cash_outflow_failed", "Failed to fetch cash outflow")
}

// ListInvoices handles GET /api/invoices?search&status&limit&offset
func (h *AnalyticsHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.InvoiceFilter{
		Search: q.Get("search"),
		Status: q.Get("status"),
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit"), services.DefaultInvoiceLimit); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "validation_error", "limit must be an integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "validation_error", "offset must be an integer")
		return
	}

	page, err := h.analyticsService.ListInvoices(r.Context(), filter)
	h.respond(w, page, err, "list_invoices_failed", "Failed to fetch invoices")
}

func (h *AnalyticsHandler) respond(w http.ResponseWriter, data any, err error, errorCode, message string) {
	if err == nil {
		respondJSON(w, h.logger, http.StatusOK, data)
		return
	}
	if errors.Is(err, apperrors.ErrDatabaseUnavailable) {
		respondError(w, h.logger, http.StatusServiceUnavailable, "database_unavailable", message)
		return
	}
	h.logger.Error(message, zap.String("error_code", errorCode), zap.Error(err))
	respondError(w, h.logger, http.StatusInternalServerError, errorCode, message)
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
