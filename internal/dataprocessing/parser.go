package dataprocessing

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"margincli/internal/config"
	apperrors "margincli/internal/errors"
)

// dateLayouts lists the timestamp formats seen across marketplace export
// versions, tried in order.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01-02-06 15:04",
}

// ParseOrders reads a completed-orders workbook. The extract carries the
// header on the first row followed by one sub-header row which is skipped.
func ParseOrders(r io.Reader) (*OrdersFile, error) {
	rows, err := readFirstSheet(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read orders workbook", err)
	}
	return parseOrderRows(rows)
}

// ParseOrdersFile is the file-path variant of ParseOrders used by the CLI.
func ParseOrdersFile(path string) (*OrdersFile, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	rows, err := firstSheetRows(f)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read orders workbook", err)
	}
	return parseOrderRows(rows)
}

// ParseIncome reads a settlement workbook. Header on the first row, no
// sub-header.
func ParseIncome(r io.Reader) (*IncomeFile, error) {
	rows, err := readFirstSheet(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read income workbook", err)
	}
	return parseIncomeRows(rows)
}

// ParseIncomeFile is the file-path variant of ParseIncome used by the CLI.
func ParseIncomeFile(path string) (*IncomeFile, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	rows, err := firstSheetRows(f)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read income workbook", err)
	}
	return parseIncomeRows(rows)
}

func readFirstSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return firstSheetRows(f)
}

func firstSheetRows(f *excelize.File) ([][]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook contains no sheets")
	}
	return f.GetRows(sheets[0])
}

func parseOrderRows(rows [][]string) (*OrdersFile, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("orders workbook is empty", nil)
	}

	header := headerIndex(rows[0])
	required := []string{
		config.ColOrderID,
		config.ColOrderStatus,
		config.ColProductName,
		config.ColSellerSKU,
		config.ColVariation,
		config.ColQuantity,
	}
	for _, col := range required {
		if _, ok := header[col]; !ok {
			return nil, apperrors.NewMissingColumnError("orders", col)
		}
	}

	// The marketplace export repeats localized sub-headers on row 2.
	dataRows := rows[1:]
	if len(dataRows) > 0 {
		dataRows = dataRows[1:]
	}

	dateColumn := ""
	dateIdx := -1
	for _, candidate := range config.OrderDateColumns {
		if idx, ok := header[candidate]; ok {
			dateColumn = candidate
			dateIdx = idx
			break
		}
	}

	file := &OrdersFile{DateColumn: dateColumn}
	for _, row := range dataRows {
		orderID := cell(row, header[config.ColOrderID])
		if orderID == "" {
			continue
		}

		record := OrderRecord{
			OrderID:     orderID,
			OrderStatus: cell(row, header[config.ColOrderStatus]),
			ProductName: cell(row, header[config.ColProductName]),
			SellerSKU:   cell(row, header[config.ColSellerSKU]),
			Variation:   cell(row, header[config.ColVariation]),
			Quantity:    parseQuantity(cell(row, header[config.ColQuantity])),
		}
		if dateIdx >= 0 {
			record.CreatedAt = parseDate(cell(row, dateIdx))
		}
		file.Records = append(file.Records, record)
	}

	return file, nil
}

func parseIncomeRows(rows [][]string) (*IncomeFile, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("income workbook is empty", nil)
	}

	header := headerIndex(rows[0])
	for _, col := range []string{config.ColAdjustmentID, config.ColSettlementAmount} {
		if _, ok := header[col]; !ok {
			return nil, apperrors.NewMissingColumnError("income", col)
		}
	}

	file := &IncomeFile{}
	for _, row := range rows[1:] {
		id := cell(row, header[config.ColAdjustmentID])
		if id == "" {
			continue
		}
		file.Records = append(file.Records, IncomeRecord{
			AdjustmentID:     id,
			SettlementAmount: parseAmount(cell(row, header[config.ColSettlementAmount])),
		})
	}

	return file, nil
}

// headerIndex maps trimmed header names to their column positions. Uploaded
// files routinely carry stray whitespace around headers.
func headerIndex(row []string) map[string]int {
	index := make(map[string]int, len(row))
	for i, name := range row {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, exists := index[trimmed]; !exists {
			index[trimmed] = i
		}
	}
	return index
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseQuantity tolerates both integer and float-formatted cells; anything
// unparseable counts as zero rather than failing the upload.
func parseQuantity(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		return int(f)
	}
	return 0
}

// parseAmount strips thousands separators and currency prefixes before
// parsing. Negative amounts are legitimate settlement adjustments.
func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "Rp")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseDate tries the known export layouts; a zero time means unparseable,
// which the daily aggregation treats as "no date available".
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
