package http

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"margincli/internal/config"
	apierrors "margincli/internal/errors"
	"margincli/internal/middleware"
	"margincli/internal/services"
	"margincli/internal/validation"
)

// UploadHandler handles marketplace extract uploads with RFC 7807 compliance
type UploadHandler struct {
	service      *services.AnalysisService
	uploads      *validation.UploadValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(service *services.AnalysisService, uploads *validation.UploadValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *UploadHandler {
	return &UploadHandler{
		service:      service,
		uploads:      uploads,
		logger:       logger.With(slog.String("component", "upload_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the upload routes
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/orders", h.UploadOrders)
	r.Post("/income", h.UploadIncome)
	r.Get("/status", h.Status)

	return r
}

// UploadOrders handles POST /api/data/orders
func (h *UploadHandler) UploadOrders(w http.ResponseWriter, r *http.Request) {
	file, ok := h.extractFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.service.LoadOrders(r.Context(), file)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "orders upload failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// UploadIncome handles POST /api/data/income
func (h *UploadHandler) UploadIncome(w http.ResponseWriter, r *http.Request) {
	file, ok := h.extractFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.service.LoadIncome(r.Context(), file)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "income upload failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// Status handles GET /api/data/status
func (h *UploadHandler) Status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status())
}

// extractFile pulls the uploaded workbook out of the multipart form. A false
// return means the error response has already been written.
func (h *UploadHandler) extractFile(w http.ResponseWriter, r *http.Request) (multipart.File, bool) {
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusRequestEntityTooLarge,
			"UPLOAD_TOO_LARGE",
			"Uploaded file exceeds the maximum allowed size",
			map[string]interface{}{"max_size": config.MaxUploadSize},
		))
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "A workbook file is required in the 'file' form field"))
		return nil, false
	}

	head := make([]byte, 4)
	n, _ := io.ReadFull(file, head)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}
	if err := h.uploads.ValidateUpload(header.Filename, header.Size, head[:n]); err != nil {
		file.Close()
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}

	h.logger.InfoContext(r.Context(), "upload received",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))
	return file, true
}
