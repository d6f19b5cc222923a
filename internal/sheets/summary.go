package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"clubcheck/internal/reconciliation"
	"clubcheck/pkg/models"
)

// MemberRow is one member summary row of the report sheet
type MemberRow struct {
	MemberID  string
	Name      string
	Invoiced  float64
	Paid      float64
	Balance   float64
	Unmatched int
	Ambiguous int
	Errors    string
	CheckedAt string
}

var memberHeaders = []interface{}{
	"Jäsen", "Nimi", "Laskutettu", "Maksettu", "Saldo",
	"Ei löydy", "Epäselvä", "Virheet", "Tarkistettu",
}

// RowAppender is the part of Service the summary sink writes through
type RowAppender interface {
	AppendRows(ctx context.Context, sheetName string, headers []interface{}, values [][]interface{}) error
}

// SummarySink collects one row per member report and appends them to the
// sheet on Flush
type SummarySink struct {
	mu        sync.Mutex
	appender  RowAppender
	sheetName string
	rows      []MemberRow
	now       func() time.Time
}

// NewSummarySink creates a sink writing to the named sheet
func NewSummarySink(appender RowAppender, sheetName string) *SummarySink {
	return &SummarySink{
		appender:  appender,
		sheetName: sheetName,
		now:       time.Now,
	}
}

// Write buffers the member's summary row
func (s *SummarySink) Write(_ context.Context, r *reconciliation.MemberReport) error {
	row := toMemberRow(r, s.now().Format("02.01.2006 15:04:05"))

	s.mu.Lock()
	s.rows = append(s.rows, row)
	s.mu.Unlock()
	return nil
}

// Flush appends the buffered rows and clears the buffer
func (s *SummarySink) Flush(ctx context.Context) error {
	const op = "SummarySink.Flush"

	s.mu.Lock()
	rows := s.rows
	s.rows = nil
	s.mu.Unlock()

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, rowToValues(row))
	}
	if err := s.appender.AppendRows(ctx, s.sheetName, memberHeaders, values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func toMemberRow(r *reconciliation.MemberReport, checkedAt string) MemberRow {
	var errs []string
	for _, err := range r.Errors() {
		errs = append(errs, err.Error())
	}
	return MemberRow{
		MemberID:  r.Member.ID,
		Name:      r.Member.Name(),
		Invoiced:  r.InvoicedTotal.InexactFloat64(),
		Paid:      r.PaidTotal.InexactFloat64(),
		Balance:   r.Balance().InexactFloat64(),
		Unmatched: r.Count(models.MatchUnmatched),
		Ambiguous: r.Count(models.MatchAmbiguous),
		Errors:    strings.Join(errs, "; "),
		CheckedAt: checkedAt,
	}
}

// rowToValues converts MemberRow to interface{} slice for Google Sheets
func rowToValues(row MemberRow) []interface{} {
	return []interface{}{
		row.MemberID,  // A: Jäsen
		row.Name,      // B: Nimi
		row.Invoiced,  // C: Laskutettu
		row.Paid,      // D: Maksettu
		row.Balance,   // E: Saldo
		row.Unmatched, // F: Ei löydy
		row.Ambiguous, // G: Epäselvä
		row.Errors,    // H: Virheet
		row.CheckedAt, // I: Tarkistettu
	}
}
