package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"margincli/internal/costs"
	"margincli/internal/dataprocessing"
)

// Sheet names of the generated report.
const (
	SheetOverview    = "Overview"
	SheetPerProduct  = "Product Summary"
	SheetPerSKU      = "SKU Summary"
	SheetDailySales  = "Daily Sales"
	SheetTopProducts = "Top Products"
	SheetCosts       = "Product Costs"
)

// ReportData carries every finished table the Excel report needs. The
// exporter writes it verbatim; nothing here is recomputed.
type ReportData struct {
	Summary     []dataprocessing.ProductSummary
	SKUSummary  []dataprocessing.SKUSummary
	Daily       []dataprocessing.DailySales
	Top         []dataprocessing.ProductSummary
	Totals      dataprocessing.BusinessTotals
	Costs       costs.Mapping
	PeriodStart time.Time
	PeriodEnd   time.Time
	GeneratedAt time.Time
}

// ExcelWriter renders the multi-sheet profitability report.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a new Excel report writer.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger.With(slog.String("component", "excel_writer"))}
}

// Write renders the report workbook to out.
func (w *ExcelWriter) Write(ctx context.Context, data ReportData, out io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newReportStyles(f)
	if err != nil {
		return fmt.Errorf("failed to create report styles: %w", err)
	}

	if err := w.writeOverview(f, styles, data); err != nil {
		return err
	}
	if err := w.writeProductSheet(f, SheetPerProduct, data.Summary); err != nil {
		return err
	}
	if err := w.writeSKUSheet(f, data.SKUSummary); err != nil {
		return err
	}
	if err := w.writeDailySheet(f, data.Daily); err != nil {
		return err
	}
	if err := w.writeProductSheet(f, SheetTopProducts, data.Top); err != nil {
		return err
	}
	if err := w.writeCostSheet(f, data.Costs); err != nil {
		return err
	}

	// The default sheet excelize creates is replaced by Overview.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write report workbook: %w", err)
	}

	w.logger.InfoContext(ctx, "excel report generated",
		slog.Int("product_rows", len(data.Summary)),
		slog.Int("sku_rows", len(data.SKUSummary)),
		slog.Int("daily_rows", len(data.Daily)))

	return nil
}

type reportStyles struct {
	title    int
	header   int
	currency int
	percent  int
}

func newReportStyles(f *excelize.File) (*reportStyles, error) {
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E2F3"}},
	})
	if err != nil {
		return nil, err
	}

	currency, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		return nil, err
	}

	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10}) // 0.00%
	if err != nil {
		return nil, err
	}

	return &reportStyles{title: title, header: header, currency: currency, percent: percent}, nil
}

func (w *ExcelWriter) writeOverview(f *excelize.File, styles *reportStyles, data ReportData) error {
	if _, err := f.NewSheet(SheetOverview); err != nil {
		return fmt.Errorf("failed to create overview sheet: %w", err)
	}
	if err := f.SetColWidth(SheetOverview, "A", "B", 28); err != nil {
		return err
	}

	if err := f.MergeCell(SheetOverview, "A1", "C1"); err != nil {
		return err
	}
	if err := f.SetCellValue(SheetOverview, "A1", "SALES & PROFIT ANALYSIS REPORT"); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetOverview, "A1", "C1", styles.title); err != nil {
		return err
	}

	period := "n/a"
	if !data.PeriodStart.IsZero() {
		period = fmt.Sprintf("%s - %s",
			data.PeriodStart.Format("02/01/2006"),
			data.PeriodEnd.Format("02/01/2006"))
	}

	rows := []struct {
		label string
		value interface{}
		style int
	}{
		{"Period", period, 0},
		{"Generated", data.GeneratedAt.Format("02 January 2006 15:04"), 0},
		{"", nil, 0},
		{"Total Orders", data.Totals.TotalOrders, 0},
		{"Total Quantity", data.Totals.TotalQty, 0},
		{"Total Revenue", data.Totals.OrderRevenue, styles.currency},
		{"Total Cost", data.Totals.TotalCost, styles.currency},
		{"Total Profit", data.Totals.Profit, styles.currency},
		{"Share 60%", data.Totals.ShareMajor, styles.currency},
		{"Share 40%", data.Totals.ShareMinor, styles.currency},
		{"", nil, 0},
		{"Average Order Value", data.Totals.AvgOrderValue, styles.currency},
		{"Average Profit per Order", data.Totals.AvgProfitPerOrder, styles.currency},
		{"Overall Profit Margin", data.Totals.OverallMarginPct / 100, styles.percent},
		{"Line-Item Revenue (per product)", data.Totals.LineItemRevenue, styles.currency},
		{"Filter Coverage", data.Totals.CoveragePct / 100, styles.percent},
	}

	for i, row := range rows {
		if row.label == "" {
			continue
		}
		labelCell := fmt.Sprintf("A%d", i+3)
		valueCell := fmt.Sprintf("B%d", i+3)
		if err := f.SetCellValue(SheetOverview, labelCell, row.label); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetOverview, labelCell, labelCell, styles.header); err != nil {
			return err
		}
		if err := f.SetCellValue(SheetOverview, valueCell, row.value); err != nil {
			return err
		}
		if row.style != 0 {
			if err := f.SetCellStyle(SheetOverview, valueCell, valueCell, row.style); err != nil {
				return err
			}
		}
	}

	return nil
}

// ProductSummaryHeaders are the column headers of the per-product sheets and
// the CSV export, in output order.
var ProductSummaryHeaders = []string{
	"Seller SKU", "Product Name", "Variation", "TotalQty", "Revenue",
	"Cost per Unit", "Total Cost", "Profit", "Profit Margin %", "Share 60%", "Share 40%",
}

func (w *ExcelWriter) writeProductSheet(f *excelize.File, sheet string, rows []dataprocessing.ProductSummary) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := make([]interface{}, len(ProductSummaryHeaders))
	for i, h := range ProductSummaryHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range rows {
		values := []interface{}{
			row.SellerSKU, row.ProductName, row.Variation, row.TotalQty, row.Revenue,
			row.CostPerUnit, row.TotalCost, row.Profit, row.ProfitMarginPct, row.ShareMajor, row.ShareMinor,
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return err
		}
	}

	return nil
}

func (w *ExcelWriter) writeSKUSheet(f *excelize.File, rows []dataprocessing.SKUSummary) error {
	if _, err := f.NewSheet(SheetPerSKU); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetPerSKU, err)
	}

	header := []interface{}{
		"Seller SKU", "Product Name", "Total Quantity", "Total Orders", "Total Revenue",
		"Cost per Unit", "Total Cost", "Profit", "Profit Margin %", "Share 60%", "Share 40%",
	}
	if err := f.SetSheetRow(SheetPerSKU, "A1", &header); err != nil {
		return err
	}

	for i, row := range rows {
		values := []interface{}{
			row.SellerSKU, row.ProductName, row.TotalQty, row.TotalOrders, row.Revenue,
			row.CostPerUnit, row.TotalCost, row.Profit, row.ProfitMarginPct, row.ShareMajor, row.ShareMinor,
		}
		if err := f.SetSheetRow(SheetPerSKU, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return err
		}
	}

	return nil
}

func (w *ExcelWriter) writeDailySheet(f *excelize.File, rows []dataprocessing.DailySales) error {
	if _, err := f.NewSheet(SheetDailySales); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetDailySales, err)
	}

	header := []interface{}{"Order Date", "Daily Quantity", "Daily Orders", "Daily Revenue"}
	if err := f.SetSheetRow(SheetDailySales, "A1", &header); err != nil {
		return err
	}

	for i, row := range rows {
		values := []interface{}{row.Date, row.Quantity, row.Orders, row.Revenue}
		if err := f.SetSheetRow(SheetDailySales, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return err
		}
	}

	return nil
}

func (w *ExcelWriter) writeCostSheet(f *excelize.File, costMap costs.Mapping) error {
	if _, err := f.NewSheet(SheetCosts); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetCosts, err)
	}

	header := []interface{}{"Product Name", "Cost per Unit"}
	if err := f.SetSheetRow(SheetCosts, "A1", &header); err != nil {
		return err
	}

	for i, name := range costMap.ProductNames() {
		values := []interface{}{name, costMap[name]}
		if err := f.SetSheetRow(SheetCosts, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return err
		}
	}

	return nil
}
