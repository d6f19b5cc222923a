package statement

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"

	"clubcheck/internal/logger"
	"clubcheck/pkg/models"
)

// Columns names the statement header of each transaction field
type Columns struct {
	Date      string
	Amount    string
	Payee     string
	Reference string
	Type      string
}

// DefaultColumns returns the headers of a Finnish bank CSV export
func DefaultColumns() Columns {
	return Columns{
		Date:      "Päivämäärä",
		Amount:    "Määrä EUR",
		Payee:     "Saaja/maksaja",
		Reference: "Viite/Viesti",
		Type:      "Selite",
	}
}

// WithOverrides replaces headers by field name (date, amount, payee, reference, type)
func (c Columns) WithOverrides(overrides map[string]string) (Columns, error) {
	for field, header := range overrides {
		switch strings.ToLower(field) {
		case "date":
			c.Date = header
		case "amount":
			c.Amount = header
		case "payee":
			c.Payee = header
		case "reference":
			c.Reference = header
		case "type":
			c.Type = header
		default:
			return c, fmt.Errorf("unknown statement field %q", field)
		}
	}
	return c, nil
}

// CSVReader reads semicolon separated bank statements
type CSVReader struct {
	columns  Columns
	encoding string
	log      zerolog.Logger
}

// NewCSVReader creates a reader for the given headers and encoding
// ("latin1" or "utf-8")
func NewCSVReader(columns Columns, encoding string) *CSVReader {
	return &CSVReader{
		columns:  columns,
		encoding: strings.ToLower(encoding),
		log:      logger.WithComponent("statement-csv"),
	}
}

// Read parses all transactions. Rows that do not parse are logged and skipped;
// a missing header column is an error.
func (r *CSVReader) Read(ctx context.Context, src io.Reader, source string) ([]*models.Transaction, error) {
	const op = "CSVReader.Read"

	switch r.encoding {
	case "latin1", "iso-8859-1":
		src = charmap.ISO8859_1.NewDecoder().Reader(src)
	case "utf-8", "utf8", "":
	default:
		return nil, fmt.Errorf("%s: unsupported encoding %q", op, r.encoding)
	}

	reader := csv.NewReader(src)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyStatement)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read header: %w", op, err)
	}

	idx, err := r.columns.index(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var transactions []*models.Transaction
	rowNum := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, rowNum, err)
		}
		if isBlank(row) {
			continue
		}

		t, err := r.columns.parseRow(row, idx, rowNum)
		if err != nil {
			r.log.Warn().
				Err(err).
				Str("source", source).
				Int("row", rowNum).
				Msg("Failed to parse bank transaction, skipping")
			continue
		}
		t.Source = source
		transactions = append(transactions, t)
	}

	r.log.Info().
		Str("source", source).
		Int("total_rows", rowNum-1).
		Int("parsed_transactions", len(transactions)).
		Msg("Bank statement read successfully")

	return transactions, nil
}

type columnIndex struct {
	date, amount, payee, reference, kind int
}

func (c Columns) index(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	lookup := func(name string, required bool) (int, error) {
		if i, ok := positions[name]; ok {
			return i, nil
		}
		if required {
			return -1, &MissingColumnError{Column: name}
		}
		return -1, nil
	}

	var idx columnIndex
	var err error
	if idx.date, err = lookup(c.Date, true); err != nil {
		return idx, err
	}
	if idx.amount, err = lookup(c.Amount, true); err != nil {
		return idx, err
	}
	if idx.reference, err = lookup(c.Reference, true); err != nil {
		return idx, err
	}
	idx.payee, _ = lookup(c.Payee, false)
	idx.kind, _ = lookup(c.Type, false)
	return idx, nil
}

func (c Columns) parseRow(row []string, idx columnIndex, rowNum int) (*models.Transaction, error) {
	dateStr := field(row, idx.date)
	date, err := parseDate(dateStr)
	if err != nil {
		return nil, &ParseError{Row: rowNum, Column: c.Date, Value: dateStr, Err: err}
	}

	amountStr := field(row, idx.amount)
	amount, err := parseAmount(amountStr)
	if err != nil {
		return nil, &ParseError{Row: rowNum, Column: c.Amount, Value: amountStr, Err: err}
	}

	ref, explanation := parseReference(field(row, idx.reference))

	return &models.Transaction{
		ID:          uuid.NewString(),
		Date:        date,
		Amount:      amount,
		Reference:   ref,
		Explanation: explanation,
		Payee:       field(row, idx.payee),
		RawType:     field(row, idx.kind),
	}, nil
}

// field safely extracts a value from a row; index -1 means the column is absent
func field(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
