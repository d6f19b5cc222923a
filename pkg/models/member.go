package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Member struct {
	ID        string
	FirstName string
	LastName  string

	Invoices    []InvoiceSummary
	Memberships []Membership

	// Derived by the reconciliation run
	InvoicedTotal decimal.Decimal
	PaidTotal     decimal.Decimal
}

// Membership ties a member to a group at a given level (e.g. "Pelaaja")
type Membership struct {
	MemberID string
	GroupID  string
	Level    string
}

// Name returns the display name of the member
func (m *Member) Name() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// HasLevel reports whether any of the member's memberships has one of the levels.
func (m *Member) HasLevel(levels []string) bool {
	for _, ms := range m.Memberships {
		for _, level := range levels {
			if strings.EqualFold(ms.Level, level) {
				return true
			}
		}
	}
	return false
}

// Balance is paid minus invoiced; negative means the member owes money
func (m *Member) Balance() decimal.Decimal {
	return m.PaidTotal.Sub(m.InvoicedTotal)
}
