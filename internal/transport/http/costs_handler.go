package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "margincli/internal/errors"
	"margincli/internal/middleware"
	"margincli/internal/services"
)

// maxCostImportSize bounds the imported cost mapping document.
const maxCostImportSize = 4 << 20

// CostHandler manages the product unit-cost mapping endpoints
type CostHandler struct {
	service      *services.CostService
	analysis     *services.AnalysisService
	validation   *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewCostHandler creates a new cost handler
func NewCostHandler(service *services.CostService, analysis *services.AnalysisService, validation *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *CostHandler {
	return &CostHandler{
		service:      service,
		analysis:     analysis,
		validation:   validation,
		logger:       logger.With(slog.String("component", "cost_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the cost mapping routes
func (h *CostHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetAll)
	r.Post("/reload", h.Reload)
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	r.Route("/{product}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Put)
		r.Delete("/", h.Delete)
	})

	return r
}

// costUpdateRequest is the PUT body for a single product cost.
type costUpdateRequest struct {
	CostPerUnit float64 `json:"cost_per_unit" validate:"gte=0"`
}

// costResponse is the wire format of one cost entry.
type costResponse struct {
	ProductName string  `json:"product_name"`
	CostPerUnit float64 `json:"cost_per_unit"`
	Mapped      bool    `json:"mapped"`
}

// GetAll handles GET /api/costs
func (h *CostHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Mapping())
}

// Get handles GET /api/costs/{product}
func (h *CostHandler) Get(w http.ResponseWriter, r *http.Request) {
	product := chi.URLParam(r, "product")
	cost, mapped := h.service.Get(product)

	// Unmapped products legitimately cost zero, so this is not a 404.
	render.JSON(w, r, costResponse{
		ProductName: product,
		CostPerUnit: cost,
		Mapped:      mapped,
	})
}

// Put handles PUT /api/costs/{product}
func (h *CostHandler) Put(w http.ResponseWriter, r *http.Request) {
	product := chi.URLParam(r, "product")

	var req costUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest, "INVALID_JSON", "Request body contains invalid JSON"))
		return
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if err := h.service.Set(r.Context(), product, req.CostPerUnit); err != nil {
		h.logger.ErrorContext(r.Context(), "cost update failed",
			slog.String("product", product),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.refreshSummary(r)
	render.JSON(w, r, costResponse{ProductName: product, CostPerUnit: req.CostPerUnit, Mapped: true})
}

// Delete handles DELETE /api/costs/{product}
func (h *CostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	product := chi.URLParam(r, "product")

	if err := h.service.Delete(r.Context(), product); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.refreshSummary(r)
	render.NoContent(w, r)
}

// Reload handles POST /api/costs/reload
func (h *CostHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reload(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.refreshSummary(r)
	render.JSON(w, r, map[string]interface{}{
		"status":        "reloaded",
		"product_count": len(h.service.Mapping()),
	})
}

// Export handles GET /api/costs/export
func (h *CostHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportJSON()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="product_costs.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import handles POST /api/costs/import
func (h *CostHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxCostImportSize))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest, "INVALID_BODY", "Failed to read request body"))
		return
	}

	count, err := h.service.ImportJSON(r.Context(), data)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.refreshSummary(r)
	render.JSON(w, r, map[string]interface{}{
		"status":        "imported",
		"product_count": count,
	})
}

// refreshSummary rebuilds the product summary from the cached settled table.
// Sessions that have not processed anything yet are left alone.
func (h *CostHandler) refreshSummary(r *http.Request) {
	if h.analysis == nil {
		return
	}
	if err := h.analysis.Resummarize(r.Context()); err != nil && !errors.Is(err, services.ErrNotProcessed) {
		h.logger.WarnContext(r.Context(), "summary refresh failed",
			slog.String("error", err.Error()))
	}
}
