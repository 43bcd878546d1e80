package costs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"margincli/internal/config"
	apperrors "margincli/internal/errors"
)

const (
	headerProductName = "product_name"
	headerCostPerUnit = "cost_per_unit"
)

// SheetStore persists the cost mapping in a Google Sheet with two columns,
// product_name and cost_per_unit. Save clears the sheet and rewrites it in
// full, so the sheet always mirrors the latest mapping exactly.
type SheetStore struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *slog.Logger
}

// NewSheetStore creates a sheet-backed cost store using service account
// credentials from the configured file.
func NewSheetStore(ctx context.Context, logger *slog.Logger, cfg config.CostsConfig) (*SheetStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("failed to read credentials file %s", cfg.CredentialsFile), err)
	}

	service, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create sheets service", err)
	}

	logger.InfoContext(ctx, "cost sheet store initialized",
		slog.String("spreadsheet_id", cfg.SpreadsheetID),
		slog.String("sheet_name", cfg.SheetName))

	return &SheetStore{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		logger:        logger.With(slog.String("component", "cost_sheet_store")),
	}, nil
}

// Load reads the full cost mapping from the sheet.
func (s *SheetStore) Load(ctx context.Context) (Mapping, error) {
	readRange := fmt.Sprintf("%s!A:B", s.sheetName)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read cost sheet", err)
	}

	mapping := Mapping{}
	for i, row := range resp.Values {
		if len(row) < 2 {
			continue
		}
		name := fmt.Sprintf("%v", row[0])
		if i == 0 && name == headerProductName {
			continue
		}
		if name == "" {
			continue
		}
		mapping[name] = parseCostCell(row[1])
	}

	s.logger.InfoContext(ctx, "loaded cost mapping",
		slog.Int("products", len(mapping)))

	return mapping, nil
}

// Save replaces the sheet contents with the given mapping, header included.
// Clear-then-write keeps deleted products from lingering in the store.
func (s *SheetStore) Save(ctx context.Context, m Mapping) error {
	clearRange := fmt.Sprintf("%s!A:B", s.sheetName)
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return apperrors.NewStorageError("failed to clear cost sheet", err)
	}

	values := [][]interface{}{{headerProductName, headerCostPerUnit}}
	for _, name := range m.ProductNames() {
		values = append(values, []interface{}{name, m[name]})
	}

	valueRange := &sheets.ValueRange{Values: values}
	writeRange := fmt.Sprintf("%s!A1", s.sheetName)
	if _, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, writeRange, valueRange).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return apperrors.NewStorageError("failed to write cost sheet", err)
	}

	s.logger.InfoContext(ctx, "saved cost mapping",
		slog.Int("products", len(m)))

	return nil
}

func parseCostCell(v interface{}) float64 {
	switch cell := v.(type) {
	case float64:
		return cell
	case string:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
