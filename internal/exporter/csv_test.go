package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"margincli/internal/dataprocessing"
)

func TestCSVWriter_Write(t *testing.T) {
	rows := []dataprocessing.ProductSummary{
		{
			SellerSKU: "SKU-A", ProductName: "Widget", Variation: "Red",
			TotalQty: 10, Revenue: 1000, CostPerUnit: 40, TotalCost: 400,
			Profit: 600, ProfitMarginPct: 60, ShareMajor: 360, ShareMinor: 240,
		},
	}

	var buf bytes.Buffer
	err := NewCSVWriter(nil).Write(&buf, WriteOptions{
		Headers: ProductSummaryHeaders,
		Records: SummaryRecords(rows),
	})
	require.NoError(t, err)

	parsed, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, ProductSummaryHeaders, parsed[0])
	assert.Equal(t, []string{
		"SKU-A", "Widget", "Red", "10", "1000.00",
		"40.00", "400.00", "600.00", "60.00", "360.00", "240.00",
	}, parsed[1])
}

func TestCSVWriter_BOMPrefix(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVWriter(nil).Write(&buf, WriteOptions{
		Headers:   []string{"Product Name"},
		BOMPrefix: true,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
}

func TestCSVWriter_WriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "summary.csv")

	err := NewCSVWriter(nil).WriteFile(path, WriteOptions{
		Headers: []string{"a", "b"},
		Records: [][]string{{"1", "2"}},
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(content))
}

func TestSummaryRecords_Empty(t *testing.T) {
	assert.Empty(t, SummaryRecords(nil))
}
