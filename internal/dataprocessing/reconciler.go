package dataprocessing

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoSettledOrders signals that the join produced zero rows. It is a
// distinct condition from zero revenue: nothing in the two extracts
// overlapped, so the caller must surface a message instead of an empty
// report.
var ErrNoSettledOrders = errors.New("no completed orders matched the settlement extract")

// Reconciler joins the status-filtered orders extract to the deduplicated
// settlement extract. The transformation is pure: no I/O, no retries, and
// identical inputs always yield identical output.
type Reconciler struct {
	logger          *slog.Logger
	completedStatus string
}

// NewReconciler creates a reconciler. completedStatus is the order-status
// sentinel marking a completed sale; empty falls back to the exports'
// default "Selesai".
func NewReconciler(logger *slog.Logger, completedStatus string) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if completedStatus == "" {
		completedStatus = "Selesai"
	}
	return &Reconciler{
		logger:          logger.With(slog.String("component", "reconciler")),
		completedStatus: completedStatus,
	}
}

// Reconcile filters, deduplicates and inner-joins the two extracts.
// Output rows preserve the filtered orders' input order, so the result is
// deterministic. Returns ErrNoSettledOrders when nothing joins.
func (r *Reconciler) Reconcile(ctx context.Context, orders []OrderRecord, income []IncomeRecord) ([]SettledOrder, error) {
	completed := r.FilterCompleted(orders)
	deduped := DeduplicateIncome(income)

	amounts := make(map[string]float64, len(deduped))
	for _, rec := range deduped {
		amounts[rec.AdjustmentID] = rec.SettlementAmount
	}

	settled := make([]SettledOrder, 0, len(completed))
	for _, order := range completed {
		amount, ok := amounts[order.OrderID]
		if !ok {
			// Orders without a settlement match are not revenue yet and are
			// excluded from all downstream metrics.
			continue
		}
		settled = append(settled, SettledOrder{
			OrderRecord:      order,
			SettlementAmount: amount,
		})
	}

	r.logger.InfoContext(ctx, "reconciled extracts",
		slog.Int("orders_total", len(orders)),
		slog.Int("orders_completed", len(completed)),
		slog.Int("income_total", len(income)),
		slog.Int("income_deduplicated", len(deduped)),
		slog.Int("settled", len(settled)))

	if len(settled) == 0 {
		return nil, ErrNoSettledOrders
	}
	return settled, nil
}

// FilterCompleted retains only order rows whose status equals the completed
// sentinel, exact string match.
func (r *Reconciler) FilterCompleted(orders []OrderRecord) []OrderRecord {
	completed := make([]OrderRecord, 0, len(orders))
	for _, order := range orders {
		if order.OrderStatus == r.completedStatus {
			completed = append(completed, order)
		}
	}
	return completed
}

// DeduplicateIncome keeps the first row per adjustment ID in input order.
// Settlement rows sharing an ID are re-exports of the same event, not
// separate charges, so duplicates are dropped rather than summed.
func DeduplicateIncome(income []IncomeRecord) []IncomeRecord {
	seen := make(map[string]struct{}, len(income))
	deduped := make([]IncomeRecord, 0, len(income))
	for _, rec := range income {
		if _, dup := seen[rec.AdjustmentID]; dup {
			continue
		}
		seen[rec.AdjustmentID] = struct{}{}
		deduped = append(deduped, rec)
	}
	return deduped
}
