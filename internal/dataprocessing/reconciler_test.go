package dataprocessing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReconciler() *Reconciler {
	return NewReconciler(slog.Default(), "Selesai")
}

func TestReconcileScenario(t *testing.T) {
	// Completed order A with duplicate settlement rows; pending order B must
	// be excluded even though a settlement row exists for it.
	orders := []OrderRecord{
		{OrderID: "A", OrderStatus: "Selesai", ProductName: "Widget", SellerSKU: "W1", Quantity: 2},
		{OrderID: "B", OrderStatus: "Pending", ProductName: "Widget", SellerSKU: "W1", Quantity: 1},
	}
	income := []IncomeRecord{
		{AdjustmentID: "A", SettlementAmount: 100},
		{AdjustmentID: "A", SettlementAmount: 100},
		{AdjustmentID: "B", SettlementAmount: 50},
	}

	settled, err := testReconciler().Reconcile(context.Background(), orders, income)
	require.NoError(t, err)
	require.Len(t, settled, 1)
	assert.Equal(t, "A", settled[0].OrderID)
	assert.Equal(t, 2, settled[0].Quantity)
	assert.Equal(t, 100.0, settled[0].SettlementAmount)
}

func TestReconcileNoMatch(t *testing.T) {
	orders := []OrderRecord{
		{OrderID: "A", OrderStatus: "Selesai", Quantity: 1},
	}
	income := []IncomeRecord{
		{AdjustmentID: "Z", SettlementAmount: 10},
	}

	settled, err := testReconciler().Reconcile(context.Background(), orders, income)
	assert.Nil(t, settled)
	assert.ErrorIs(t, err, ErrNoSettledOrders)
}

func TestReconcileRowCountBound(t *testing.T) {
	// Output never exceeds min(filtered orders, deduplicated income).
	orders := []OrderRecord{
		{OrderID: "A", OrderStatus: "Selesai"},
		{OrderID: "B", OrderStatus: "Selesai"},
		{OrderID: "C", OrderStatus: "Batal"},
	}
	income := []IncomeRecord{
		{AdjustmentID: "A", SettlementAmount: 1},
		{AdjustmentID: "A", SettlementAmount: 1},
	}

	r := testReconciler()
	settled, err := r.Reconcile(context.Background(), orders, income)
	require.NoError(t, err)

	filtered := r.FilterCompleted(orders)
	deduped := DeduplicateIncome(income)
	bound := len(filtered)
	if len(deduped) < bound {
		bound = len(deduped)
	}
	assert.LessOrEqual(t, len(settled), bound)
}

func TestReconcileDeterministic(t *testing.T) {
	orders := []OrderRecord{
		{OrderID: "B", OrderStatus: "Selesai", SellerSKU: "S2", Quantity: 1},
		{OrderID: "A", OrderStatus: "Selesai", SellerSKU: "S1", Quantity: 2},
		{OrderID: "C", OrderStatus: "Selesai", SellerSKU: "S3", Quantity: 3},
	}
	income := []IncomeRecord{
		{AdjustmentID: "C", SettlementAmount: 30},
		{AdjustmentID: "A", SettlementAmount: 10},
		{AdjustmentID: "B", SettlementAmount: 20},
	}

	r := testReconciler()
	first, err := r.Reconcile(context.Background(), orders, income)
	require.NoError(t, err)
	second, err := r.Reconcile(context.Background(), orders, income)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// Join preserves the filtered orders' input order
	assert.Equal(t, "B", first[0].OrderID)
	assert.Equal(t, "A", first[1].OrderID)
	assert.Equal(t, "C", first[2].OrderID)
}

func TestDeduplicateIncomeFirstWins(t *testing.T) {
	income := []IncomeRecord{
		{AdjustmentID: "A", SettlementAmount: 100},
		{AdjustmentID: "A", SettlementAmount: 999},
		{AdjustmentID: "B", SettlementAmount: -25},
	}

	deduped := DeduplicateIncome(income)
	require.Len(t, deduped, 2)
	assert.Equal(t, 100.0, deduped[0].SettlementAmount, "first occurrence wins, duplicates are not summed")
	assert.Equal(t, -25.0, deduped[1].SettlementAmount)
}

func TestDeduplicateIncomeIdempotent(t *testing.T) {
	income := []IncomeRecord{
		{AdjustmentID: "A", SettlementAmount: 100},
		{AdjustmentID: "A", SettlementAmount: 200},
		{AdjustmentID: "B", SettlementAmount: 50},
	}

	once := DeduplicateIncome(income)
	twice := DeduplicateIncome(once)
	assert.Equal(t, once, twice)
}

func TestReconcileCustomSentinel(t *testing.T) {
	r := NewReconciler(slog.Default(), "Completed")
	orders := []OrderRecord{
		{OrderID: "A", OrderStatus: "Completed", Quantity: 1},
		{OrderID: "B", OrderStatus: "Selesai", Quantity: 1},
	}
	income := []IncomeRecord{
		{AdjustmentID: "A", SettlementAmount: 10},
		{AdjustmentID: "B", SettlementAmount: 20},
	}

	settled, err := r.Reconcile(context.Background(), orders, income)
	require.NoError(t, err)
	require.Len(t, settled, 1)
	assert.Equal(t, "A", settled[0].OrderID)
}
