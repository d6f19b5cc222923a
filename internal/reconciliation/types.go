package reconciliation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"clubcheck/internal/matching"
	"clubcheck/pkg/models"
)

// InvoiceFetcher retrieves the full invoice, payments included, for an id
// listed on a member
type InvoiceFetcher interface {
	Invoice(ctx context.Context, id string) (*models.Invoice, error)
}

// TransactionIndex looks up bank transactions by payment reference
type TransactionIndex interface {
	FindByReference(ref int64) []*models.Transaction
}

// Sink receives one report per checked member
type Sink interface {
	Write(ctx context.Context, report *MemberReport) error
}

// InvoiceReport is the outcome of checking one invoice of a member
type InvoiceReport struct {
	Summary models.InvoiceSummary // as listed on the member
	Invoice *models.Invoice       // nil when the fetch failed
	Match   matching.Summary
	Err     error // fetch or validation failure; the invoice was skipped
}

// Failed reports whether the invoice could not be checked
func (r *InvoiceReport) Failed() bool {
	return r.Err != nil
}

// MemberReport is the outcome of checking one member
type MemberReport struct {
	Member   *models.Member
	Invoices []InvoiceReport

	InvoicedTotal decimal.Decimal // sum of due amounts of the checked invoice summaries
	PaidTotal     decimal.Decimal // sum of linked transaction amounts
	Kinds         map[models.MatchKind]int
}

// Balance is paid minus invoiced; negative means the member owes money
func (r *MemberReport) Balance() decimal.Decimal {
	return r.PaidTotal.Sub(r.InvoicedTotal)
}

// Count returns the number of the member's payments classified as kind
func (r *MemberReport) Count(kind models.MatchKind) int {
	return r.Kinds[kind]
}

// NeedsReview returns the number of unmatched and ambiguous payments
func (r *MemberReport) NeedsReview() int {
	return r.Count(models.MatchUnmatched) + r.Count(models.MatchAmbiguous)
}

// Errors returns the per-invoice failures in invoice order
func (r *MemberReport) Errors() []error {
	var errs []error
	for i := range r.Invoices {
		if r.Invoices[i].Err != nil {
			errs = append(errs, r.Invoices[i].Err)
		}
	}
	return errs
}

// BatchResult is the outcome of one reconciliation run
type BatchResult struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Reports  []*MemberReport // checked members in input order
	Filtered int             // members skipped by the level filter or listed twice

	Invoices       int // invoices checked
	FailedInvoices int
	Kinds          map[models.MatchKind]int

	SinkErrors []error
}

// Members returns the number of members checked
func (b *BatchResult) Members() int {
	return len(b.Reports)
}

// Count returns the number of payments in the run classified as kind
func (b *BatchResult) Count(kind models.MatchKind) int {
	return b.Kinds[kind]
}

// NeedsReview returns the number of members with unmatched or ambiguous
// payments or failed invoices
func (b *BatchResult) NeedsReview() int {
	n := 0
	for _, r := range b.Reports {
		if r.NeedsReview() > 0 || len(r.Errors()) > 0 {
			n++
		}
	}
	return n
}
