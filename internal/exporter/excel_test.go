package exporter

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"margincli/internal/costs"
	"margincli/internal/dataprocessing"
)

func sampleReportData() ReportData {
	summary := []dataprocessing.ProductSummary{
		{
			SellerSKU: "SKU-A", ProductName: "Widget", Variation: "Red",
			TotalQty: 10, Revenue: 1000, CostPerUnit: 40, TotalCost: 400,
			Profit: 600, ProfitMarginPct: 60, ShareMajor: 360, ShareMinor: 240,
		},
		{
			SellerSKU: "SKU-B", ProductName: "Gadget", Variation: "",
			TotalQty: 2, Revenue: 200, CostPerUnit: 0, TotalCost: 0,
			Profit: 200, ProfitMarginPct: 100, ShareMajor: 120, ShareMinor: 80,
		},
	}
	return ReportData{
		Summary: summary,
		SKUSummary: []dataprocessing.SKUSummary{
			{
				SellerSKU: "SKU-A", ProductName: "Widget", TotalQty: 10,
				TotalOrders: 3, Revenue: 1000, CostPerUnit: 40, TotalCost: 400,
				Profit: 600, ProfitMarginPct: 60, ShareMajor: 360, ShareMinor: 240,
			},
		},
		Daily: []dataprocessing.DailySales{
			{Date: "2024-01-02", Quantity: 5, Orders: 2, Revenue: 500},
		},
		Top: summary[:1],
		Totals: dataprocessing.BusinessTotals{
			TotalOrders: 4, TotalQty: 12, OrderRevenue: 1200,
			LineItemRevenue: 1200, TotalCost: 400, Profit: 800,
			ShareMajor: 480, ShareMinor: 320, AvgOrderValue: 300,
			AvgProfitPerOrder: 200, OverallMarginPct: 66.67, CoveragePct: 100,
		},
		Costs:       costs.Mapping{"Widget": 40},
		PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC),
	}
}

func TestExcelWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	writer := NewExcelWriter(nil)

	err := writer.Write(context.Background(), sampleReportData(), &buf)
	require.NoError(t, err)
	require.NotZero(t, buf.Len())

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Equal(t, []string{
		SheetOverview, SheetPerProduct, SheetPerSKU,
		SheetDailySales, SheetTopProducts, SheetCosts,
	}, sheets)
}

func TestExcelWriter_ProductSheetContents(t *testing.T) {
	var buf bytes.Buffer
	writer := NewExcelWriter(nil)
	require.NoError(t, writer.Write(context.Background(), sampleReportData(), &buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetPerProduct)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ProductSummaryHeaders, rows[0])
	assert.Equal(t, "SKU-A", rows[1][0])
	assert.Equal(t, "Widget", rows[1][1])
	assert.Equal(t, "10", rows[1][3])
	assert.Equal(t, "SKU-B", rows[2][0])

	topRows, err := f.GetRows(SheetTopProducts)
	require.NoError(t, err)
	require.Len(t, topRows, 2)
	assert.Equal(t, "SKU-A", topRows[1][0])
}

func TestExcelWriter_CostSheetSorted(t *testing.T) {
	data := sampleReportData()
	data.Costs = costs.Mapping{"Zeta": 3, "Alpha": 1, "Mid": 2}

	var buf bytes.Buffer
	require.NoError(t, NewExcelWriter(nil).Write(context.Background(), data, &buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetCosts)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Alpha", rows[1][0])
	assert.Equal(t, "Mid", rows[2][0])
	assert.Equal(t, "Zeta", rows[3][0])
}

func TestExcelWriter_EmptyTables(t *testing.T) {
	data := ReportData{GeneratedAt: time.Now()}

	var buf bytes.Buffer
	err := NewExcelWriter(nil).Write(context.Background(), data, &buf)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 6)
}
