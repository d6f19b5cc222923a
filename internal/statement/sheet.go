package statement

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"clubcheck/internal/logger"
	"clubcheck/pkg/models"
)

// RangeReader reads a cell range of a spreadsheet
type RangeReader interface {
	ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error)
}

// SheetReader reads a bank statement pasted into a spreadsheet tab. The first
// row of the range is the header, as in the CSV export.
type SheetReader struct {
	source  RangeReader
	columns Columns
	log     zerolog.Logger
}

// NewSheetReader creates a reader of statement rows in a spreadsheet
func NewSheetReader(source RangeReader, columns Columns) *SheetReader {
	return &SheetReader{
		source:  source,
		columns: columns,
		log:     logger.WithComponent("statement-sheet"),
	}
}

// Read parses the transactions of the range (e.g. "Tili!A:K")
func (r *SheetReader) Read(ctx context.Context, rangeSpec string) ([]*models.Transaction, error) {
	const op = "SheetReader.Read"

	r.log.Info().Str("range", rangeSpec).Msg("Reading bank transactions")

	values, err := r.source.ReadRange(ctx, rangeSpec)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read statement range: %w", op, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyStatement)
	}

	idx, err := r.columns.index(cells(values[0]))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Skip header row and parse data
	var transactions []*models.Transaction
	for i, raw := range values[1:] {
		rowNum := i + 2 // Account for header and 0-based indexing

		row := cells(raw)
		if isBlank(row) {
			continue
		}

		t, err := r.columns.parseRow(row, idx, rowNum)
		if err != nil {
			r.log.Warn().
				Err(err).
				Int("row", rowNum).
				Msg("Failed to parse bank transaction, skipping")
			continue
		}
		t.Source = rangeSpec
		transactions = append(transactions, t)
	}

	r.log.Info().
		Str("range", rangeSpec).
		Int("total_rows", len(values)-1).
		Int("parsed_transactions", len(transactions)).
		Msg("Bank transactions read successfully")

	return transactions, nil
}

// cells converts a spreadsheet row to strings
func cells(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprintf("%v", v))
	}
	return out
}
