package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "margincli/internal/errors"
	"margincli/internal/files"
	"margincli/internal/middleware"
	"margincli/internal/services"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// ReportHandler serves downloadable report files and the archive of
// previously generated reports.
type ReportHandler struct {
	service      *services.ReportService
	archive      *files.Archive
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(service *services.ReportService, archive *files.Archive, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		archive:      archive,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/excel", h.DownloadExcel)
	r.Get("/csv", h.DownloadCSV)
	r.Get("/archive", h.ListArchive)
	r.Get("/archive/{name}", h.DownloadArchived)
	return r
}

// DownloadExcel handles GET /api/report/excel
func (h *ReportHandler) DownloadExcel(w http.ResponseWriter, r *http.Request) {
	// Render into memory first so a generation failure still produces a
	// clean problem response instead of a truncated download.
	var buf bytes.Buffer
	if err := h.service.WriteExcel(r.Context(), &buf); err != nil {
		h.logger.ErrorContext(r.Context(), "excel report generation failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("profit_report_%s.xlsx", time.Now().Format("20060102_150405"))
	h.archiveCopy(r, filename, buf.Bytes())
	h.sendAttachment(w, filename, contentTypeXLSX, buf.Bytes())
}

// DownloadCSV handles GET /api/report/csv
func (h *ReportHandler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.WriteCSV(r.Context(), &buf); err != nil {
		h.logger.ErrorContext(r.Context(), "csv report generation failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("product_summary_%s.csv", time.Now().Format("20060102_150405"))
	h.archiveCopy(r, filename, buf.Bytes())
	h.sendAttachment(w, filename, contentTypeCSV, buf.Bytes())
}

// ListArchive handles GET /api/report/archive
func (h *ReportHandler) ListArchive(w http.ResponseWriter, r *http.Request) {
	reports, err := h.archive.List()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewStorageError("failed to list archived reports", err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// DownloadArchived handles GET /api/report/archive/{name}
func (h *ReportHandler) DownloadArchived(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, err := h.archive.Open(name)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound,
			"REPORT_NOT_FOUND",
			"No archived report with that name",
			map[string]interface{}{"name": name},
		))
		return
	}

	contentType := contentTypeXLSX
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		contentType = contentTypeCSV
	}
	h.sendAttachment(w, name, contentType, data)
}

// archiveCopy keeps a copy of a generated report. Archive failures do
// not block the download.
func (h *ReportHandler) archiveCopy(r *http.Request, filename string, data []byte) {
	if err := h.archive.Save(filename, data); err != nil {
		h.logger.WarnContext(r.Context(), "failed to archive report",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
	}
}

func (h *ReportHandler) sendAttachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
