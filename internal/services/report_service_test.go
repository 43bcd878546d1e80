package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func processedSession(t *testing.T) *AnalysisService {
	t.Helper()
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()

	_, err := svc.LoadOrders(ctx, ordersWorkbook(t))
	require.NoError(t, err)
	_, err = svc.LoadIncome(ctx, incomeWorkbook(t))
	require.NoError(t, err)
	_, err = svc.Process(ctx)
	require.NoError(t, err)
	return svc
}

func TestReportService_WriteExcel(t *testing.T) {
	rs := NewReportService(processedSession(t), nil)

	var buf bytes.Buffer
	require.NoError(t, rs.WriteExcel(context.Background(), &buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 6)
}

func TestReportService_WriteCSV(t *testing.T) {
	rs := NewReportService(processedSession(t), nil)

	var buf bytes.Buffer
	require.NoError(t, rs.WriteCSV(context.Background(), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, buf.String(), "Seller SKU")
	assert.Contains(t, buf.String(), "SKU-A")
}

func TestReportService_RequiresProcessedSession(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	rs := NewReportService(svc, nil)

	var buf bytes.Buffer
	assert.ErrorIs(t, rs.WriteExcel(context.Background(), &buf), ErrNotProcessed)
	assert.ErrorIs(t, rs.WriteCSV(context.Background(), &buf), ErrNotProcessed)
}
