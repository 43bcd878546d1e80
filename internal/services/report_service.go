package services

import (
	"context"
	"io"
	"log/slog"

	"margincli/internal/exporter"
)

// ReportService renders downloadable reports from the current analysis
// session.
type ReportService struct {
	analysis *AnalysisService
	excel    *exporter.ExcelWriter
	csv      *exporter.CSVWriter
	logger   *slog.Logger
}

// NewReportService creates a report service over the given analysis session.
func NewReportService(analysis *AnalysisService, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		analysis: analysis,
		excel:    exporter.NewExcelWriter(logger),
		csv:      exporter.NewCSVWriter(logger),
		logger:   logger.With(slog.String("service", "reports")),
	}
}

// WriteExcel renders the full multi-sheet workbook to out.
func (rs *ReportService) WriteExcel(ctx context.Context, out io.Writer) error {
	data, err := rs.analysis.ReportData(ctx)
	if err != nil {
		return err
	}
	return rs.excel.Write(ctx, data, out)
}

// WriteCSV renders the per-product summary as CSV to out. The UTF-8 BOM keeps
// spreadsheet applications from mangling non-ASCII product names.
func (rs *ReportService) WriteCSV(ctx context.Context, out io.Writer) error {
	summary, err := rs.analysis.Summary(ctx)
	if err != nil {
		return err
	}
	return rs.csv.Write(out, exporter.WriteOptions{
		Headers:   exporter.ProductSummaryHeaders,
		Records:   exporter.SummaryRecords(summary),
		BOMPrefix: true,
	})
}
