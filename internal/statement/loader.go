// Package statement ingests bank statements.
//
// Two formats are supported: the semicolon separated CSV export of Finnish
// banks (latin-1, decimal comma, DD.MM.YYYY dates) and OFX. Both produce
// normalized models.Transaction values: parsed dates, signed decimal amounts
// and an integer reference when the reference field is numeric. A
// non-numeric reference is kept as the transaction's explanation.
package statement

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"clubcheck/internal/store"
	"clubcheck/pkg/models"
)

// Statement formats
const (
	FormatCSV = "csv"
	FormatOFX = "ofx"
)

// Reader parses one statement
type Reader interface {
	Read(ctx context.Context, src io.Reader, source string) ([]*models.Transaction, error)
}

// Loader opens statement files and dispatches to the reader of their format
type Loader struct {
	readers map[string]Reader
}

// NewLoader creates a loader with the given CSV reader and an OFX reader
func NewLoader(csvReader *CSVReader) *Loader {
	return &Loader{
		readers: map[string]Reader{
			FormatCSV: csvReader,
			FormatOFX: NewOFXReader(),
		},
	}
}

// DetectFormat returns format when set, otherwise derives it from the file extension
func DetectFormat(path, format string) (string, error) {
	if format != "" {
		format = strings.ToLower(format)
	} else {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ofx", ".qfx":
			format = FormatOFX
		default:
			format = FormatCSV
		}
	}
	if format != FormatCSV && format != FormatOFX {
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return format, nil
}

// Load reads all transactions of the statement file
func (l *Loader) Load(ctx context.Context, path, format string) ([]*models.Transaction, error) {
	const op = "Load"

	format, err := DetectFormat(path, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open statement: %w", op, err)
	}
	defer file.Close()

	transactions, err := l.readers[format].Read(ctx, file, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return transactions, nil
}

// LoadStore reads the statement files into a transaction store
func (l *Loader) LoadStore(ctx context.Context, paths []string, format string) (*store.Store[models.Transaction], error) {
	transactions := store.NewTransactions()
	for _, path := range paths {
		loaded, err := l.Load(ctx, path, format)
		if err != nil {
			return nil, err
		}
		transactions.InsertAll(loaded)
	}
	return transactions, nil
}
