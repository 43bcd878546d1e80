package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"margincli/internal/config"
	"margincli/internal/costs"
	"margincli/internal/dataprocessing"
	apperrors "margincli/internal/errors"
	"margincli/internal/exporter"
)

// ErrNotProcessed is returned by accessors when no successful Process run has
// happened yet for the current uploads.
var ErrNotProcessed = apperrors.NewAppError(apperrors.ErrTypeValidation,
	"analysis has not been processed yet, upload both extracts and process first", nil)

// costProvider is the slice of CostService the analysis engine needs.
type costProvider interface {
	Mapping() costs.Mapping
}

// UploadResult reports what an uploaded extract contained.
type UploadResult struct {
	Records    int    `json:"records"`
	DateColumn string `json:"date_column,omitempty"`
}

// ProcessResult reports the outcome of a reconciliation run.
type ProcessResult struct {
	OrderRecords   int                            `json:"order_records"`
	IncomeRecords  int                            `json:"income_records"`
	SettledRecords int                            `json:"settled_records"`
	ProductGroups  int                            `json:"product_groups"`
	ProcessedAt    time.Time                      `json:"processed_at"`
	Totals         dataprocessing.BusinessTotals  `json:"totals"`
}

// SessionStatus describes the current analysis session.
type SessionStatus struct {
	OrdersLoaded  bool      `json:"orders_loaded"`
	IncomeLoaded  bool      `json:"income_loaded"`
	Processed     bool      `json:"processed"`
	OrderRecords  int       `json:"order_records"`
	IncomeRecords int       `json:"income_records"`
	ProcessedAt   time.Time `json:"processed_at,omitempty"`
}

// AnalysisService owns one analysis session: the uploaded extracts, the
// reconciled settled table, and the per-product summary derived from it.
// Uploading a new extract invalidates the derived state; editing costs keeps
// the settled table and only rebuilds the summaries.
type AnalysisService struct {
	reconciler *dataprocessing.Reconciler
	summarizer *dataprocessing.Summarizer
	costs      costProvider
	logger     *slog.Logger

	mu          sync.RWMutex
	orders      *dataprocessing.OrdersFile
	income      *dataprocessing.IncomeFile
	settled     []dataprocessing.SettledOrder
	summary     []dataprocessing.ProductSummary
	processedAt time.Time
}

// NewAnalysisService creates an analysis service configured from cfg.
func NewAnalysisService(cfg config.AnalysisConfig, costService costProvider, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("service", "analysis"))

	return &AnalysisService{
		reconciler: dataprocessing.NewReconciler(logger, cfg.CompletedStatus),
		summarizer: dataprocessing.NewSummarizer(logger, dataprocessing.SummarizerConfig{
			MajorShareRate: cfg.MajorShareRate,
			MinorShareRate: cfg.MinorShareRate,
		}),
		costs:  costService,
		logger: logger,
	}
}

// LoadOrders parses an orders extract and installs it as the session's order
// data. Any previously derived tables are discarded.
func (as *AnalysisService) LoadOrders(ctx context.Context, r io.Reader) (UploadResult, error) {
	parsed, err := dataprocessing.ParseOrders(r)
	if err != nil {
		return UploadResult{}, err
	}

	as.mu.Lock()
	as.orders = parsed
	as.invalidateLocked()
	as.mu.Unlock()

	as.logger.InfoContext(ctx, "orders extract loaded",
		slog.Int("records", len(parsed.Records)),
		slog.String("date_column", parsed.DateColumn))
	return UploadResult{Records: len(parsed.Records), DateColumn: parsed.DateColumn}, nil
}

// LoadIncome parses a settlement extract and installs it as the session's
// income data. Any previously derived tables are discarded.
func (as *AnalysisService) LoadIncome(ctx context.Context, r io.Reader) (UploadResult, error) {
	parsed, err := dataprocessing.ParseIncome(r)
	if err != nil {
		return UploadResult{}, err
	}

	as.mu.Lock()
	as.income = parsed
	as.invalidateLocked()
	as.mu.Unlock()

	as.logger.InfoContext(ctx, "settlement extract loaded",
		slog.Int("records", len(parsed.Records)))
	return UploadResult{Records: len(parsed.Records)}, nil
}

// Process reconciles the two extracts and builds the product summary with the
// current cost mapping. Both extracts must be loaded.
func (as *AnalysisService) Process(ctx context.Context) (ProcessResult, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.orders == nil || as.income == nil {
		return ProcessResult{}, apperrors.NewAppValidationError(
			"both the orders extract and the settlement extract must be uploaded before processing")
	}

	settled, err := as.reconciler.Reconcile(ctx, as.orders.Records, as.income.Records)
	if err != nil {
		if errors.Is(err, dataprocessing.ErrNoSettledOrders) {
			return ProcessResult{}, apperrors.ErrNoMatchingOrders
		}
		return ProcessResult{}, err
	}

	as.settled = settled
	as.summary = as.summarizer.Summarize(ctx, settled, as.costs.Mapping())
	as.processedAt = time.Now()

	totals := as.summarizer.BusinessTotals(ctx, as.settled, as.summary)
	as.logger.InfoContext(ctx, "analysis processed",
		slog.Int("settled_records", len(settled)),
		slog.Int("product_groups", len(as.summary)))

	return ProcessResult{
		OrderRecords:   len(as.orders.Records),
		IncomeRecords:  len(as.income.Records),
		SettledRecords: len(settled),
		ProductGroups:  len(as.summary),
		ProcessedAt:    as.processedAt,
		Totals:         totals,
	}, nil
}

// Resummarize rebuilds the product summary from the cached settled table
// after a cost change. The reconciliation itself is not repeated.
func (as *AnalysisService) Resummarize(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.settled == nil {
		return ErrNotProcessed
	}

	as.summary = as.summarizer.Summarize(ctx, as.settled, as.costs.Mapping())
	as.logger.DebugContext(ctx, "summary rebuilt after cost change",
		slog.Int("product_groups", len(as.summary)))
	return nil
}

// Status reports what the session currently holds.
func (as *AnalysisService) Status() SessionStatus {
	as.mu.RLock()
	defer as.mu.RUnlock()

	status := SessionStatus{
		OrdersLoaded: as.orders != nil,
		IncomeLoaded: as.income != nil,
		Processed:    as.settled != nil,
		ProcessedAt:  as.processedAt,
	}
	if as.orders != nil {
		status.OrderRecords = len(as.orders.Records)
	}
	if as.income != nil {
		status.IncomeRecords = len(as.income.Records)
	}
	return status
}

// Summary returns the per-product profitability table.
func (as *AnalysisService) Summary(ctx context.Context) ([]dataprocessing.ProductSummary, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.settled == nil {
		return nil, ErrNotProcessed
	}
	return append([]dataprocessing.ProductSummary(nil), as.summary...), nil
}

// SKUSummary returns the per-SKU aggregation.
func (as *AnalysisService) SKUSummary(ctx context.Context) ([]dataprocessing.SKUSummary, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.settled == nil {
		return nil, ErrNotProcessed
	}
	return as.summarizer.SummarizeBySKU(ctx, as.settled, as.costs.Mapping()), nil
}

// DailySummary returns the per-day breakdown.
func (as *AnalysisService) DailySummary(ctx context.Context) ([]dataprocessing.DailySales, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.settled == nil {
		return nil, ErrNotProcessed
	}
	return as.summarizer.SummarizeDaily(ctx, as.settled), nil
}

// Totals returns the order-level business totals.
func (as *AnalysisService) Totals(ctx context.Context) (dataprocessing.BusinessTotals, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.settled == nil {
		return dataprocessing.BusinessTotals{}, ErrNotProcessed
	}
	return as.summarizer.BusinessTotals(ctx, as.settled, as.summary), nil
}

// Top returns the top n products by the given metric. Metric is "profit" or
// "margin"; ascending orders lowest first.
func (as *AnalysisService) Top(ctx context.Context, metric string, ascending bool, n int) ([]dataprocessing.ProductSummary, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.settled == nil {
		return nil, ErrNotProcessed
	}

	switch metric {
	case "", "profit":
		if !ascending {
			return as.summarizer.TopByProfit(as.summary, n), nil
		}
		rows := append([]dataprocessing.ProductSummary(nil), as.summary...)
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Profit < rows[j].Profit })
		if n > 0 && n < len(rows) {
			rows = rows[:n]
		}
		return rows, nil
	case "margin":
		return as.summarizer.TopByMargin(as.summary, n, ascending), nil
	default:
		return nil, apperrors.NewAppValidationError("unknown ranking metric: " + metric)
	}
}

// Quadrants returns the volume/margin quadrant classification.
func (as *AnalysisService) Quadrants(ctx context.Context) (dataprocessing.QuadrantReport, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.settled == nil {
		return dataprocessing.QuadrantReport{}, ErrNotProcessed
	}
	return as.summarizer.Quadrants(as.summary), nil
}

// Insights returns the portfolio insight counters.
func (as *AnalysisService) Insights(ctx context.Context) (dataprocessing.Insights, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.settled == nil {
		return dataprocessing.Insights{}, ErrNotProcessed
	}
	return as.summarizer.InsightReport(as.summary), nil
}

// ReportData assembles every table the Excel report needs from the current
// session.
func (as *AnalysisService) ReportData(ctx context.Context) (exporter.ReportData, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.settled == nil {
		return exporter.ReportData{}, ErrNotProcessed
	}

	costMap := as.costs.Mapping()
	start, end := settledPeriod(as.settled)

	return exporter.ReportData{
		Summary:     as.summary,
		SKUSummary:  as.summarizer.SummarizeBySKU(ctx, as.settled, costMap),
		Daily:       as.summarizer.SummarizeDaily(ctx, as.settled),
		Top:         as.summarizer.TopByProfit(as.summary, config.DashboardTopN),
		Totals:      as.summarizer.BusinessTotals(ctx, as.settled, as.summary),
		Costs:       costMap,
		PeriodStart: start,
		PeriodEnd:   end,
		GeneratedAt: time.Now(),
	}, nil
}

// invalidateLocked drops derived state. Callers hold the write lock.
func (as *AnalysisService) invalidateLocked() {
	as.settled = nil
	as.summary = nil
	as.processedAt = time.Time{}
}

// settledPeriod returns the earliest and latest creation timestamps across
// the settled table, skipping records without a usable date.
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
