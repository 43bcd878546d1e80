package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"margincli/internal/config"
	"margincli/internal/costs"
	"margincli/internal/dataprocessing"
	"margincli/internal/exporter"
)

// report renders the full profitability workbook from two marketplace
// extracts without running the web server.
func main() {
	ordersPath := flag.String("orders", "", "path to the completed-orders .xlsx extract (required)")
	incomePath := flag.String("income", "", "path to the settlement .xlsx extract (required)")
	costsPath := flag.String("costs", "", "optional path to a product cost mapping .json file")
	outPath := flag.String("out", "", "output path for the report (defaults to profit_report_<timestamp>.xlsx)")
	status := flag.String("status", config.CompletedOrderStatus, "order-status value that marks a completed sale")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *ordersPath == "" || *incomePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), logger, *ordersPath, *incomePath, *costsPath, *outPath, *status); err != nil {
		logger.Error("report generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, ordersPath, incomePath, costsPath, outPath, status string) error {
	orders, err := dataprocessing.ParseOrdersFile(ordersPath)
	if err != nil {
		return fmt.Errorf("orders extract: %w", err)
	}
	logger.Info("orders extract parsed",
		slog.Int("records", len(orders.Records)),
		slog.String("date_column", orders.DateColumn))

	income, err := dataprocessing.ParseIncomeFile(incomePath)
	if err != nil {
		return fmt.Errorf("settlement extract: %w", err)
	}
	logger.Info("settlement extract parsed", slog.Int("records", len(income.Records)))

	costMap := costs.Mapping{}
	if costsPath != "" {
		data, err := os.ReadFile(costsPath)
		if err != nil {
			return fmt.Errorf("cost mapping: %w", err)
		}
		costMap, err = costs.ImportJSON(data)
		if err != nil {
			return fmt.Errorf("cost mapping: %w", err)
		}
		logger.Info("cost mapping loaded", slog.Int("products", len(costMap)))
	}

	reconciler := dataprocessing.NewReconciler(logger, status)
	settled, err := reconciler.Reconcile(ctx, orders.Records, income.Records)
	if err != nil {
		return err
	}

	summarizer := dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig())
	summary := summarizer.Summarize(ctx, settled, costMap)

	start, end := settledPeriod(settled)
	data := exporter.ReportData{
		Summary:     summary,
		SKUSummary:  summarizer.SummarizeBySKU(ctx, settled, costMap),
		Daily:       summarizer.SummarizeDaily(ctx, settled),
		Top:         summarizer.TopByProfit(summary, config.DashboardTopN),
		Totals:      summarizer.BusinessTotals(ctx, settled, summary),
		Costs:       costMap,
		PeriodStart: start,
		PeriodEnd:   end,
		GeneratedAt: time.Now(),
	}

	if outPath == "" {
		outPath = fmt.Sprintf("profit_report_%s.xlsx", time.Now().Format("20060102_150405"))
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("output directory: %w", err)
		}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("output file: %w", err)
	}
	defer out.Close()

	if err := exporter.NewExcelWriter(logger).Write(ctx, data, out); err != nil {
		return err
	}

	logger.Info("report written",
		slog.String("path", outPath),
		slog.Int("settled_records", len(settled)),
		slog.Int("product_groups", len(summary)))
	return nil
}

func settledPeriod(settled []dataprocessing.SettledOrder) (time.Time, time.Time) {
	var start, end time.Time
	for _, row := range settled {
		if row.CreatedAt.IsZero() {
			continue
		}
		if start.IsZero() || row.CreatedAt.Before(start) {
			start = row.CreatedAt
		}
		if end.IsZero() || row.CreatedAt.After(end) {
			end = row.CreatedAt
		}
	}
	return start, end
}
