package models

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Invoice statuses reported by the club accounting service
const (
	StatusPaid     = "paid"
	StatusOverpaid = "overpaid"
	StatusOverdue  = "overdue"
	StatusOpen     = "open"
)

type Invoice struct {
	// Core identifiers
	ID        string // Accounting service invoice id
	Reference int64  // Payment reference printed on the invoice

	// Dates and amounts
	DueDate   civil.Date      // Payment due date
	DueAmount decimal.Decimal // Amount still due, copied from the member summary

	// Status
	Status string // paid, overpaid, overdue, open, ...

	// Payments recorded by the accounting service, in their original order
	Payments []*Payment
}

// InvoiceSummary is the short invoice record listed on a member
type InvoiceSummary struct {
	ID        string
	DueDate   civil.Date
	DueAmount decimal.Decimal
	Status    string
}

// Payment is one payment recorded against an invoice.
//
// After matching exactly one of Transaction, Candidates or neither is set.
// Use the setters below instead of assigning the fields directly.
type Payment struct {
	Amount      decimal.Decimal
	PaymentDate time.Time
	Reference   *int64 // nil when the payment carries no reference
	Payer       string
	Comment     string

	Transaction *Transaction   // Committed backing transaction
	Candidates  []*Transaction // Ambiguous candidates, at least two
	Match       MatchKind
}

// Link commits t as the backing transaction of the payment.
func (p *Payment) Link(t *Transaction, kind MatchKind) {
	p.Transaction = t
	p.Candidates = nil
	p.Match = kind
}

// MarkAmbiguous records the candidates that all matched the payment.
func (p *Payment) MarkAmbiguous(candidates []*Transaction) {
	p.Transaction = nil
	p.Candidates = append([]*Transaction(nil), candidates...)
	p.Match = MatchAmbiguous
}

// Classify sets a classification that carries no link.
func (p *Payment) Classify(kind MatchKind) {
	p.Transaction = nil
	p.Candidates = nil
	p.Match = kind
}

// ResetMatch clears the result of a previous matching run.
func (p *Payment) ResetMatch() {
	p.Classify(MatchPending)
}

// Linked reports whether a transaction has been committed to the payment.
func (p *Payment) Linked() bool {
	return p.Transaction != nil
}

// HasReference returns the payment reference and whether it is present.
func (p *Payment) HasReference() (int64, bool) {
	if p.Reference == nil {
		return 0, false
	}
	return *p.Reference, true
}
