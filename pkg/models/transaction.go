package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one row of a bank statement. It is never modified after
// ingestion.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`                // negative for outgoing
	Reference   *int64          `json:"reference,omitempty"`   // nil when the statement field is not numeric
	Explanation string          `json:"explanation,omitempty"` // non-numeric reference text
	Payee       string          `json:"payee"`
	RawType     string          `json:"type"`
	Source      string          `json:"source,omitempty"` // statement file the row came from
}

// HasReference returns the transaction reference and whether it is present.
func (t *Transaction) HasReference() (int64, bool) {
	if t.Reference == nil {
		return 0, false
	}
	return *t.Reference, true
}

// IsIncoming returns true for money received
func (t *Transaction) IsIncoming() bool {
	return t.Amount.IsPositive()
}

// Ref is a small helper for building optional references.
func Ref(v int64) *int64 {
	return &v
}
