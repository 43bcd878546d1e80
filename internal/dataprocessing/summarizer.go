package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"margincli/internal/costs"
)

// DateUnavailableLabel is the placeholder date used when the extract carries
// no recognizable creation-timestamp column or none of its values parse.
const DateUnavailableLabel = "date unavailable"

// Summarizer owns every derived-metric formula. All aggregation levels
// (product, SKU, daily, business totals) go through applyProfitMetrics so
// the numbers cannot drift between the dashboard, the API and the report.
type Summarizer struct {
	logger     *slog.Logger
	majorShare float64
	minorShare float64
}

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	MajorShareRate float64 // stakeholder split, defaults to 0.60
	MinorShareRate float64 // defaults to 0.40
}

// DefaultSummarizerConfig returns the standard 60/40 profit split.
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{MajorShareRate: 0.60, MinorShareRate: 0.40}
}

// NewSummarizer creates a summarizer with the given configuration.
func NewSummarizer(logger *slog.Logger, cfg SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MajorShareRate <= 0 {
		cfg.MajorShareRate = 0.60
	}
	if cfg.MinorShareRate <= 0 {
		cfg.MinorShareRate = 1 - cfg.MajorShareRate
	}
	return &Summarizer{
		logger:     logger.With(slog.String("component", "summarizer")),
		majorShare: cfg.MajorShareRate,
		minorShare: cfg.MinorShareRate,
	}
}

// profitMetrics is the single source of truth for the derived columns.
type profitMetrics struct {
	CostPerUnit     float64
	TotalCost       float64
	Profit          float64
	ProfitMarginPct float64
	ShareMajor      float64
	ShareMinor      float64
}

// applyProfitMetrics derives cost, profit, margin and shares for one
// aggregate. Margin with zero revenue is clamped to 0 rather than NaN; the
// clamp is deliberate so adjustment-only groups stay representable.
func (s *Summarizer) applyProfitMetrics(qty int, revenue, costPerUnit float64) profitMetrics {
	totalCost := float64(qty) * costPerUnit
	profit := revenue - totalCost

	margin := 0.0
	if revenue != 0 {
		margin = round2(profit / revenue * 100)
	}

	return profitMetrics{
		CostPerUnit:     costPerUnit,
		TotalCost:       totalCost,
		Profit:          profit,
		ProfitMarginPct: margin,
		ShareMajor:      profit * s.majorShare,
		ShareMinor:      profit * s.minorShare,
	}
}

// Summarize groups the settled-order table by (SKU, product, variation) and
// derives the profitability columns. Group order follows first appearance in
// the input, so output is stable for a fixed input. Unknown products cost 0;
// the gap is visible in the cost table rather than hidden.
func (s *Summarizer) Summarize(ctx context.Context, settled []SettledOrder, costMap costs.Mapping) []ProductSummary {
	type key struct{ sku, product, variation string }

	index := make(map[key]int)
	summaries := make([]ProductSummary, 0)

	for _, row := range settled {
		k := key{row.SellerSKU, row.ProductName, row.Variation}
		i, ok := index[k]
		if !ok {
			i = len(summaries)
			index[k] = i
			summaries = append(summaries, ProductSummary{
				SellerSKU:   row.SellerSKU,
				ProductName: row.ProductName,
				Variation:   row.Variation,
			})
		}
		summaries[i].TotalQty += row.Quantity
		summaries[i].Revenue += row.SettlementAmount
	}

	for i := range summaries {
		m := s.applyProfitMetrics(summaries[i].TotalQty, summaries[i].Revenue, costMap.Cost(summaries[i].ProductName))
		summaries[i].CostPerUnit = m.CostPerUnit
		summaries[i].TotalCost = m.TotalCost
		summaries[i].Profit = m.Profit
		summaries[i].ProfitMarginPct = m.ProfitMarginPct
		summaries[i].ShareMajor = m.ShareMajor
		summaries[i].ShareMinor = m.ShareMinor
	}

	s.logger.InfoContext(ctx, "built product summary",
		slog.Int("settled_rows", len(settled)),
		slog.Int("product_rows", len(summaries)))

	return summaries
}

// SummarizeBySKU aggregates by SKU alone. Order counts are distinct order
// IDs per SKU, and cost attribution uses the first product name seen for the
// SKU (SKU to product name is treated as 1:1 for costing).
func (s *Summarizer) SummarizeBySKU(ctx context.Context, settled []SettledOrder, costMap costs.Mapping) []SKUSummary {
	index := make(map[string]int)
	orderIDs := make(map[string]map[string]struct{})
	summaries := make([]SKUSummary, 0)

	for _, row := range settled {
		i, ok := index[row.SellerSKU]
		if !ok {
			i = len(summaries)
			index[row.SellerSKU] = i
			orderIDs[row.SellerSKU] = make(map[string]struct{})
			summaries = append(summaries, SKUSummary{
				SellerSKU:   row.SellerSKU,
				ProductName: row.ProductName,
			})
		}
		summaries[i].TotalQty += row.Quantity
		summaries[i].Revenue += row.SettlementAmount
		orderIDs[row.SellerSKU][row.OrderID] = struct{}{}
	}

	for i := range summaries {
		summaries[i].TotalOrders = len(orderIDs[summaries[i].SellerSKU])
		m := s.applyProfitMetrics(summaries[i].TotalQty, summaries[i].Revenue, costMap.Cost(summaries[i].ProductName))
		summaries[i].CostPerUnit = m.CostPerUnit
		summaries[i].TotalCost = m.TotalCost
		summaries[i].Profit = m.Profit
		summaries[i].ProfitMarginPct = m.ProfitMarginPct
		summaries[i].ShareMajor = m.ShareMajor
		summaries[i].ShareMinor = m.ShareMinor
	}

	return summaries
}

// SummarizeDaily groups by calendar date. Rows without a parseable creation
// timestamp are skipped; if no row carries one, the table degrades to a
// single placeholder entry instead of failing the report.
func (s *Summarizer) SummarizeDaily(ctx context.Context, settled []SettledOrder) []DailySales {
	index := make(map[string]int)
	orderIDs := make(map[string]map[string]struct{})
	daily := make([]DailySales, 0)

	for _, row := range settled {
		if row.CreatedAt.IsZero() {
			continue
		}
		date := row.CreatedAt.Format("2006-01-02")
		i, ok := index[date]
		if !ok {
			i = len(daily)
			index[date] = i
			orderIDs[date] = make(map[string]struct{})
			daily = append(daily, DailySales{Date: date})
		}
		daily[i].Quantity += row.Quantity
		daily[i].Revenue += row.SettlementAmount
		orderIDs[date][row.OrderID] = struct{}{}
	}

	if len(daily) == 0 {
		return []DailySales{{Date: DateUnavailableLabel, Placeholder: true}}
	}

	for i := range daily {
		daily[i].Orders = len(orderIDs[daily[i].Date])
	}

	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })
	return daily
}

// BusinessTotals computes the dashboard's order-level totals. Revenue is
// summed after deduplicating by OrderID so multi-line-item orders count
// once; the product summary's line-item revenue is reported alongside, with
// CoveragePct relating the two. The asymmetry is intentional and both
// figures stay independently retrievable.
func (s *Summarizer) BusinessTotals(ctx context.Context, settled []SettledOrder, summary []ProductSummary) BusinessTotals {
	totals := BusinessTotals{}

	seen := make(map[string]struct{}, len(settled))
	for _, row := range settled {
		totals.TotalQty += row.Quantity
		if _, dup := seen[row.OrderID]; dup {
			continue
		}
		seen[row.OrderID] = struct{}{}
		totals.OrderRevenue += row.SettlementAmount
	}
	totals.TotalOrders = len(seen)

	for _, row := range summary {
		totals.LineItemRevenue += row.Revenue
		totals.TotalCost += row.TotalCost
	}

	totals.Profit = totals.OrderRevenue - totals.TotalCost
	totals.ShareMajor = totals.Profit * s.majorShare
	totals.ShareMinor = totals.Profit * s.minorShare

	if totals.TotalOrders > 0 {
		totals.AvgOrderValue = totals.OrderRevenue / float64(totals.TotalOrders)
		totals.AvgProfitPerOrder = totals.Profit / float64(totals.TotalOrders)
	}
	if totals.OrderRevenue != 0 {
		totals.OverallMarginPct = round2(totals.Profit / totals.OrderRevenue * 100)
		totals.CoveragePct = round2(totals.LineItemRevenue / totals.OrderRevenue * 100)
	}

	return totals
}

// TopByProfit returns the n most profitable rows, stable sort, descending.
// n larger than the table returns every row.
func (s *Summarizer) TopByProfit(summary []ProductSummary, n int) []ProductSummary {
	ranked := make([]ProductSummary, len(summary))
	copy(ranked, summary)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Profit > ranked[j].Profit })
	return clampTop(ranked, n)
}

// TopByMargin ranks by profit margin, ascending or descending. Ascending
// surfaces the low-margin products the insight panel warns about.
func (s *Summarizer) TopByMargin(summary []ProductSummary, n int, ascending bool) []ProductSummary {
	ranked := make([]ProductSummary, len(summary))
	copy(ranked, summary)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ascending {
			return ranked[i].ProfitMarginPct < ranked[j].ProfitMarginPct
		}
		return ranked[i].ProfitMarginPct > ranked[j].ProfitMarginPct
	})
	return clampTop(ranked, n)
}

// Quadrants partitions products by comparing volume and margin against the
// table medians. Medians are recomputed on every call, never cached, so the
// partition always reflects the current summary.
func (s *Summarizer) Quadrants(summary []ProductSummary) QuadrantReport {
	report := QuadrantReport{
		Stars:      []ProductSummary{},
		Workhorses: []ProductSummary{},
		Niche:      []ProductSummary{},
		Problems:   []ProductSummary{},
	}
	if len(summary) == 0 {
		return report
	}

	qtys := make([]float64, len(summary))
	margins := make([]float64, len(summary))
	for i, row := range summary {
		qtys[i] = float64(row.TotalQty)
		margins[i] = row.ProfitMarginPct
	}
	report.MedianQty = median(qtys)
	report.MedianMargin = median(margins)

	for _, row := range summary {
		highVolume := float64(row.TotalQty) >= report.MedianQty
		highMargin := row.ProfitMarginPct >= report.MedianMargin
		switch {
		case highVolume && highMargin:
			report.Stars = append(report.Stars, row)
		case highVolume:
			report.Workhorses = append(report.Workhorses, row)
		case highMargin:
			report.Niche = append(report.Niche, row)
		default:
			report.Problems = append(report.Problems, row)
		}
	}

	return report
}

// InsightReport derives the dashboard insight counters from the product
// summary.
func (s *Summarizer) InsightReport(summary []ProductSummary) Insights {
	insights := Insights{TotalProducts: len(summary)}
	if len(summary) == 0 {
		return insights
	}

	qtys := make([]float64, len(summary))
	var totalRevenue float64
	for i, row := range summary {
		qtys[i] = float64(row.TotalQty)
		totalRevenue += row.Revenue
	}
	medianQty := median(qtys)

	for _, row := range summary {
		if row.Profit > 0 {
			insights.Profitable++
		}
		if row.ProfitMarginPct > 20 {
			insights.HighMargin++
		}
		if row.ProfitMarginPct < 10 {
			insights.LowMargin++
		}
		if float64(row.TotalQty) >= medianQty && row.ProfitMarginPct < 15 {
			insights.HighVolumeLowMargin++
		}
	}

	topCount := len(summary) / 5
	if topCount > 0 && totalRevenue != 0 {
		top := s.topByRevenue(summary, topCount)
		var topRevenue float64
		for _, row := range top {
			topRevenue += row.Revenue
		}
		insights.Top20RevenuePct = round2(topRevenue / totalRevenue * 100)
	}

	return insights
}

func (s *Summarizer) topByRevenue(summary []ProductSummary, n int) []ProductSummary {
	ranked := make([]ProductSummary, len(summary))
	copy(ranked, summary)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Revenue > ranked[j].Revenue })
	return clampTop(ranked, n)
}

func clampTop(rows []ProductSummary, n int) []ProductSummary {
	if n < 0 {
		n = 0
	}
	if n > len(rows) {
		n = len(rows)
	}
	return rows[:n]
}

// median of an unsorted slice; even counts average the middle pair.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
