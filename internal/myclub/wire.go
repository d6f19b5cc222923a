package myclub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"clubcheck/pkg/models"
)

// Group is a club group (team) as listed by the API
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BankAccount is a club bank account as listed by the API
type BankAccount struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	IBAN string `json:"iban"`
}

// Event is a scheduled group event (training, match) as listed by the API
type Event struct {
	ID       string    `json:"id"`
	GroupID  string    `json:"group_id"`
	Name     string    `json:"name"`
	Venue    string    `json:"venue,omitempty"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// flexID accepts ids sent either as JSON numbers or strings
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*f = flexID(n.String())
	return nil
}

// flexRef is a payment reference sent as a number, a numeric string, an
// empty string or null
type flexRef struct {
	value *int64
}

func (f *flexRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	f.value = nil
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if raw == "" {
		return nil
	}

	ref, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid reference %q: %w", raw, err)
	}
	f.value = &ref
	return nil
}

// flexTime is a timestamp with or without a time part. A timestamp keeps
// the offset it was sent with so its calendar date stays the club's date.
type flexTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	f.Time = time.Time{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid date %s: %w", data, err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t
			return nil
		}
	}
	return fmt.Errorf("unable to parse date: %s", s)
}

func (f flexTime) date() civil.Date {
	if f.IsZero() {
		return civil.Date{}
	}
	return civil.DateOf(f.Time)
}

type groupEnvelope struct {
	Group struct {
		ID   flexID `json:"id"`
		Name string `json:"name"`
	} `json:"group"`
}

type eventEnvelope struct {
	Event struct {
		ID        flexID   `json:"id"`
		GroupID   flexID   `json:"group_id"`
		Name      string   `json:"name"`
		VenueName string   `json:"venue_name"`
		StartsAt  flexTime `json:"starts_at"`
		EndsAt    flexTime `json:"ends_at"`
	} `json:"event"`
}

func (e eventEnvelope) toEvent() Event {
	return Event{
		ID:       string(e.Event.ID),
		GroupID:  string(e.Event.GroupID),
		Name:     e.Event.Name,
		Venue:    e.Event.VenueName,
		StartsAt: e.Event.StartsAt.Time,
		EndsAt:   e.Event.EndsAt.Time,
	}
}

type bankAccountEnvelope struct {
	BankAccount struct {
		ID   flexID `json:"id"`
		Name string `json:"name"`
		IBAN string `json:"iban"`
	} `json:"bank_account"`
}

type wireMembership struct {
	MemberID flexID `json:"member_id"`
	GroupID  flexID `json:"group_id"`
	Level    string `json:"level"`
}

type membershipEnvelope struct {
	Membership wireMembership `json:"membership"`
}

type wireInvoiceSummary struct {
	ID        flexID          `json:"id"`
	DueDate   flexTime        `json:"due_date"`
	DueAmount decimal.Decimal `json:"due_amount"`
	Status    string          `json:"status"`
}

type wireMember struct {
	ID          flexID               `json:"id"`
	FirstName   string               `json:"first_name"`
	LastName    string               `json:"last_name"`
	Invoices    []wireInvoiceSummary `json:"invoices"`
	Memberships []wireMembership     `json:"memberships"`
}

type memberEnvelope struct {
	Member *wireMember `json:"member"`
}

type wirePayment struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate flexTime        `json:"payment_date"`
	Reference   flexRef         `json:"reference"`
	Payer       string          `json:"payer"`
	Comment     string          `json:"comment"`
}

type wireInvoice struct {
	ID        flexID          `json:"id"`
	Reference flexRef         `json:"reference"`
	DueDate   flexTime        `json:"due_date"`
	DueAmount decimal.Decimal `json:"due_amount"`
	Status    string          `json:"status"`
	Payments  []wirePayment   `json:"payments"`
}

type invoiceEnvelope struct {
	Invoice *wireInvoice `json:"invoice"`
}

func (m wireMembership) toModel() models.Membership {
	return models.Membership{
		MemberID: string(m.MemberID),
		GroupID:  string(m.GroupID),
		Level:    m.Level,
	}
}

func (m *wireMember) toModel() *models.Member {
	member := &models.Member{
		ID:        string(m.ID),
		FirstName: m.FirstName,
		LastName:  m.LastName,
	}
	for _, inv := range m.Invoices {
		member.Invoices = append(member.Invoices, models.InvoiceSummary{
			ID:        string(inv.ID),
			DueDate:   inv.DueDate.date(),
			DueAmount: inv.DueAmount,
			Status:    inv.Status,
		})
	}
	for _, ms := range m.Memberships {
		member.Memberships = append(member.Memberships, ms.toModel())
	}
	return member
}

func (i *wireInvoice) toModel() (*models.Invoice, error) {
	if i.Reference.value == nil {
		return nil, fmt.Errorf("invoice %s has no reference", i.ID)
	}
	invoice := &models.Invoice{
		ID:        string(i.ID),
		Reference: *i.Reference.value,
		DueDate:   i.DueDate.date(),
		DueAmount: i.DueAmount,
		Status:    i.Status,
	}
	for _, p := range i.Payments {
		invoice.Payments = append(invoice.Payments, &models.Payment{
			Amount:      p.Amount,
			PaymentDate: p.PaymentDate.Time,
			Reference:   p.Reference.value,
			Payer:       p.Payer,
			Comment:     p.Comment,
		})
	}
	return invoice, nil
}
