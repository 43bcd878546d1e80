package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"margincli/internal/config"
	"margincli/internal/costs"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func ordersWorkbook(t *testing.T) *bytes.Reader {
	return buildWorkbook(t, [][]interface{}{
		{"Order ID", "Order Status", "Product Name", "Seller SKU", "Variation", "Quantity", "Order created time(UTC)"},
		{"ID Pesanan", "Status", "Produk", "SKU", "Variasi", "Jumlah", "Waktu"},
		{"ORD-1", "Selesai", "Widget", "SKU-A", "Red", 2, "2024-01-02 10:00:00"},
		{"ORD-2", "Selesai", "Gadget", "SKU-B", "", 1, "2024-01-05 12:00:00"},
		{"ORD-3", "Batal", "Widget", "SKU-A", "Red", 1, "2024-01-06 09:00:00"},
	})
}

func incomeWorkbook(t *testing.T) *bytes.Reader {
	return buildWorkbook(t, [][]interface{}{
		{"Order/adjustment ID", "Total settlement amount"},
		{"ORD-1", "100,000"},
		{"ORD-2", "50,000"},
	})
}

func newTestServices(t *testing.T, seed costs.Mapping) (*AnalysisService, *CostService) {
	t.Helper()

	costSvc := NewCostService(costs.NewMemoryStore(seed), nil)
	require.NoError(t, costSvc.Reload(context.Background()))

	analysisCfg := config.AnalysisConfig{
		CompletedStatus: "Selesai",
		MajorShareRate:  0.60,
		MinorShareRate:  0.40,
	}
	return NewAnalysisService(analysisCfg, costSvc, nil), costSvc
}

func TestAnalysisService_FullFlow(t *testing.T) {
	svc, _ := newTestServices(t, costs.Mapping{"Widget": 10000})
	ctx := context.Background()

	ordersResult, err := svc.LoadOrders(ctx, ordersWorkbook(t))
	require.NoError(t, err)
	assert.Equal(t, 3, ordersResult.Records)
	assert.Equal(t, "Order created time(UTC)", ordersResult.DateColumn)

	incomeResult, err := svc.LoadIncome(ctx, incomeWorkbook(t))
	require.NoError(t, err)
	assert.Equal(t, 2, incomeResult.Records)

	result, err := svc.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SettledRecords, "cancelled order must be filtered out")
	assert.Equal(t, 2, result.ProductGroups)
	assert.Equal(t, 2, result.Totals.TotalOrders)
	assert.Equal(t, 150000.0, result.Totals.OrderRevenue)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "SKU-A", summary[0].SellerSKU)
	assert.Equal(t, 100000.0, summary[0].Revenue)
	assert.Equal(t, 20000.0, summary[0].TotalCost)
	assert.Equal(t, 80000.0, summary[0].Profit)
}

func TestAnalysisService_ProcessRequiresBothUploads(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()

	_, err := svc.Process(ctx)
	assert.Error(t, err)

	_, err = svc.LoadOrders(ctx, ordersWorkbook(t))
	require.NoError(t, err)

	_, err = svc.Process(ctx)
	assert.Error(t, err, "income extract still missing")
}

func TestAnalysisService_AccessorsBeforeProcess(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	assert.ErrorIs(t, err, ErrNotProcessed)

	_, err = svc.Totals(ctx)
	assert.ErrorIs(t, err, ErrNotProcessed)

	_, err = svc.ReportData(ctx)
	assert.ErrorIs(t, err, ErrNotProcessed)

	assert.ErrorIs(t, svc.Resummarize(ctx), ErrNotProcessed)
}

func TestAnalysisService_UploadInvalidatesSession(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()

	_, err := svc.LoadOrders(ctx, ordersWorkbook(t))
	require.NoError(t, err)
	_, err = svc.LoadIncome(ctx, incomeWorkbook(t))
	require.NoError(t, err)
	_, err = svc.Process(ctx)
	require.NoError(t, err)

	assert.True(t, svc.Status().Processed)

	_, err = svc.LoadOrders(ctx, ordersWorkbook(t))
	require.NoError(t, err)

	status := svc.Status()
	assert.False(t, status.Processed, "new upload must drop derived tables")
	assert.True(t, status.OrdersLoaded)
	assert.True(t, status.IncomeLoaded)

	_, err = svc.Summary(ctx)
	assert.ErrorIs(t, err, ErrNotProcessed)
}

func TestAnalysisService_ResummarizeAfterCostEdit(t *testing.T) {
	svc, costSvc := newTestServices(t, nil)
	ctx := context.Background()

	_, err := svc.LoadOrders(ctx, ordersWorkbook(t))
	require.NoError(t, err)
	_, err = svc.LoadIncome(ctx, incomeWorkbook(t))
	require.NoError(t, err)
	_, err = svc.Process(ctx)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, summary[0].Profit, "unmapped product defaults to zero cost")

	require.NoError(t, costSvc.Set(ctx, "Widget", 10000))
	require.NoError(t, svc.Resummarize(ctx))

	summary, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 80000.0, summary[0].Profit)
	assert.True(t, svc.Status().Processed, "cost edits keep the settled table")
}

func TestAnalysisService_NoSettledOrders(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()

	_, err := svc.LoadOrders(ctx, ordersWorkbook(t))
	require.NoError(t, err)

	// Settlement IDs that match no completed order.
	_, err = svc.LoadIncome(ctx, buildWorkbook(t, [][]interface{}{
		{"Order/adjustment ID", "Total settlement amount"},
		{"UNRELATED-1", "100"},
	}))
	require.NoError(t, err)

	_, err = svc.Process(ctx)
	require.Error(t, err)
	assert.False(t, svc.Status().Processed)
}

func TestAnalysisService_Top(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()

	_, err := svc.LoadOrders(ctx, ordersWorkbook(t))
	require.NoError(t, err)
	_, err = svc.LoadIncome(ctx, incomeWorkbook(t))
	require.NoError(t, err)
	_, err = svc.Process(ctx)
	require.NoError(t, err)

	top, err := svc.Top(ctx, "profit", false, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "SKU-A", top[0].SellerSKU)

	bottom, err := svc.Top(ctx, "profit", true, 1)
	require.NoError(t, err)
	require.Len(t, bottom, 1)
	assert.Equal(t, "SKU-B", bottom[0].SellerSKU)

	_, err = svc.Top(ctx, "revenue", false, 1)
	assert.Error(t, err, "unknown metric must be rejected")
}

func TestAnalysisService_ReportDataPeriod(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()

	_, err := svc.LoadOrders(ctx, ordersWorkbook(t))
	require.NoError(t, err)
	_, err = svc.LoadIncome(ctx, incomeWorkbook(t))
	require.NoError(t, err)
	_, err = svc.Process(ctx)
	require.NoError(t, err)

	data, err := svc.ReportData(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", data.PeriodStart.Format("2006-01-02"))
	assert.Equal(t, "2024-01-05", data.PeriodEnd.Format("2006-01-02"))
	assert.Len(t, data.Summary, 2)
	assert.NotEmpty(t, data.Daily)
	assert.False(t, data.GeneratedAt.IsZero())
}

func TestAnalysisService_ParseErrorKeepsPreviousUpload(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()

	_, err := svc.LoadOrders(ctx, ordersWorkbook(t))
	require.NoError(t, err)

	_, err = svc.LoadOrders(ctx, bytes.NewReader([]byte("not a workbook")))
	require.Error(t, err)

	status := svc.Status()
	assert.True(t, status.OrdersLoaded, "failed upload must not clobber the previous extract")
	assert.Equal(t, 3, status.OrderRecords)
}
