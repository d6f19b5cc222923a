// Package report renders member payment reports.
package report

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"sync"
	"text/template"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"clubcheck/internal/logger"
	"clubcheck/internal/reconciliation"
	"clubcheck/pkg/models"
)

//go:embed report.tmpl
var reportTemplate string

// Finnish names of the invoice statuses
var statusNames = map[string]string{
	models.StatusPaid:     "maksettu",
	models.StatusOverpaid: "liikaa",
	models.StatusOverdue:  "myöhässä",
}

var funcs = template.FuncMap{
	"date":     formatDate,
	"datetime": formatTime,
	"money":    formatMoney,
	"status":   formatStatus,
	"kind":     formatKind,
}

// TextSink writes one plain text report per member
type TextSink struct {
	mu   sync.Mutex
	w    io.Writer
	tmpl *template.Template
	log  zerolog.Logger
}

// NewTextSink creates a sink writing to w
func NewTextSink(w io.Writer) (*TextSink, error) {
	tmpl, err := template.New("report").Funcs(funcs).Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("NewTextSink: failed to parse report template: %w", err)
	}
	return &TextSink{
		w:    w,
		tmpl: tmpl,
		log:  logger.WithComponent("report"),
	}, nil
}

// Write renders the member report
func (s *TextSink) Write(ctx context.Context, r *reconciliation.MemberReport) error {
	const op = "TextSink.Write"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tmpl.Execute(s.w, r); err != nil {
		s.log.Error().Err(err).Str("member_id", r.Member.ID).Msg("Render error")
		return fmt.Errorf("%s: member %s: %w", op, r.Member.ID, err)
	}
	if _, err := io.WriteString(s.w, "\n"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// WriteSummary writes the totals of a run
func (s *TextSink) WriteSummary(result *reconciliation.BatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprintf(s.w,
		"Tarkistettu %d jäsentä, %d laskua (%d virhettä). Viite %d, summa+pvm %d, poissulku %d, ei löydy %d, epäselvä %d, hylätty %d. Tarkistettavia jäseniä %d.\n",
		len(result.Reports), result.Invoices, result.FailedInvoices,
		result.Count(models.MatchByReference),
		result.Count(models.MatchByAmountDate),
		result.Count(models.MatchByExclusion),
		result.Count(models.MatchUnmatched),
		result.Count(models.MatchAmbiguous),
		result.Count(models.MatchImplausible),
		result.NeedsReview(),
	)
	return err
}

// formatDate right-aligns a dd.mm.yyyy date in ten columns
func formatDate(d civil.Date) string {
	if d == (civil.Date{}) {
		return fmt.Sprintf("%10s", "-")
	}
	return fmt.Sprintf("%10s", fmt.Sprintf("%02d.%02d.%d", d.Day, int(d.Month), d.Year))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return fmt.Sprintf("%10s", "-")
	}
	return formatDate(civil.DateOf(t))
}

// formatMoney right-aligns an amount with two decimals in eight columns
func formatMoney(d decimal.Decimal) string {
	return fmt.Sprintf("%8s", d.StringFixed(2))
}

func formatStatus(status string) string {
	if name, ok := statusNames[status]; ok {
		status = name
	}
	return fmt.Sprintf("%-8s", status)
}

func formatKind(kind models.MatchKind) string {
	return fmt.Sprintf("%-11s", kind.String())
}
