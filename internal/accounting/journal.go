package accounting

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"clubcheck/internal/logger"
	"clubcheck/pkg/models"
)

// Entry is one booking: the amount moves from the credit to the debit account
type Entry struct {
	Date        time.Time
	Description string
	Payee       string
	Message     string
	Amount      decimal.Decimal // always positive, the accounts carry the direction
	Debit       string
	Credit      string
}

// Journal books transactions with an ordered rule set
type Journal struct {
	rules []Rule
	log   zerolog.Logger
}

// NewJournal creates a journal; the first matching rule wins
func NewJournal(rules []Rule) *Journal {
	return &Journal{
		rules: rules,
		log:   logger.WithComponent("accounting"),
	}
}

// Rule returns the first rule matching t
func (j *Journal) Rule(t *models.Transaction) (Rule, bool) {
	for _, r := range j.rules {
		if r.Matches(t) {
			return r, true
		}
	}
	return Rule{}, false
}

// Book converts the transactions to entries in statement order. Transactions
// no rule matches are left out and reported in an *UnmatchedError next to the
// entries that were booked.
func (j *Journal) Book(ctx context.Context, transactions []*models.Transaction) ([]Entry, error) {
	const op = "Journal.Book"

	entries := make([]Entry, 0, len(transactions))
	var unmatched []*models.Transaction
	for _, t := range transactions {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		rule, ok := j.Rule(t)
		if !ok {
			j.log.Warn().
				Str("transaction_id", t.ID).
				Str("date", t.Date.Format("2006-01-02")).
				Str("amount", t.Amount.StringFixed(2)).
				Str("payee", t.Payee).
				Msg("No accounting rule for transaction, define one")
			unmatched = append(unmatched, t)
			continue
		}

		entries = append(entries, Entry{
			Date:        t.Date,
			Description: t.RawType,
			Payee:       t.Payee,
			Message:     message(t),
			Amount:      t.Amount.Abs(),
			Debit:       rule.Debit,
			Credit:      rule.Credit,
		})
	}

	j.log.Info().
		Int("transactions", len(transactions)).
		Int("booked", len(entries)).
		Int("unmatched", len(unmatched)).
		Msg("Transactions booked")

	if len(unmatched) > 0 {
		return entries, &UnmatchedError{Transactions: unmatched}
	}
	return entries, nil
}

var entryHeaders = []string{"Päivä", "Selite", "Saaja/maksaja", "Viesti", "Summa", "Debet", "Kredit"}

// WriteCSV writes the entries as a semicolon separated table with a header
// row, dates as dd.mm.yyyy and amounts with a decimal comma
func WriteCSV(w io.Writer, entries []Entry) error {
	const op = "WriteCSV"

	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write(entryHeaders); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, e := range entries {
		record := []string{
			e.Date.Format("02.01.2006"),
			e.Description,
			e.Payee,
			e.Message,
			strings.Replace(e.Amount.StringFixed(2), ".", ",", 1),
			e.Debit,
			e.Credit,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
