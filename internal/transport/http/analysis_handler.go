package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"margincli/internal/config"
	apierrors "margincli/internal/errors"
	"margincli/internal/middleware"
	"margincli/internal/services"
)

// AnalysisHandler exposes the reconciliation and aggregation endpoints
type AnalysisHandler struct {
	service      *services.AnalysisService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *services.AnalysisService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/process", h.Process)
	r.Get("/summary", h.Summary)
	r.Get("/summary/sku", h.SKUSummary)
	r.Get("/summary/daily", h.DailySummary)
	r.Get("/totals", h.Totals)
	r.Get("/top", h.Top)
	r.Get("/quadrants", h.Quadrants)
	r.Get("/insights", h.Insights)

	return r
}

// Process handles POST /api/analysis/process
func (h *AnalysisHandler) Process(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Process(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "processing failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// Summary handles GET /api/analysis/summary
func (h *AnalysisHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// SKUSummary handles GET /api/analysis/summary/sku
func (h *AnalysisHandler) SKUSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.SKUSummary(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// DailySummary handles GET /api/analysis/summary/daily
func (h *AnalysisHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	daily, err := h.service.DailySummary(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, daily)
}

// Totals handles GET /api/analysis/totals
func (h *AnalysisHandler) Totals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.Totals(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, totals)
}

// Top handles GET /api/analysis/top?by=profit|margin&order=asc|desc&n=10
func (h *AnalysisHandler) Top(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("by")
	if metric == "" {
		metric = "profit"
	}

	order := r.URL.Query().Get("order")
	switch order {
	case "", "asc", "desc":
	default:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("order", "order must be asc or desc"))
		return
	}

	n := config.DashboardTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("n", "n must be a positive integer"))
			return
		}
		n = parsed
	}

	top, err := h.service.Top(r.Context(), metric, order == "asc", n)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, top)
}

// Quadrants handles GET /api/analysis/quadrants
func (h *AnalysisHandler) Quadrants(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Quadrants(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// Insights handles GET /api/analysis/insights
func (h *AnalysisHandler) Insights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.service.Insights(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, insights)
}
