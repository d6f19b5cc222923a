// Package matching decides which bank transaction backs which invoice payment.
//
// The engine works on one invoice at a time. It receives the invoice's
// recorded payments and every bank transaction carrying the invoice's payment
// reference, and classifies each payment:
//
//   - reference: the transaction carries the same reference as the payment
//   - amount-date: same amount, dates at most DateEpsilon apart
//   - exclusion: the only candidate satisfying the predicate among several
//   - unmatched: no candidate satisfies the predicate
//   - ambiguous: several candidates satisfy it; left for manual resolution
//   - implausible: amount outside (0, UpperBound), never matched
//
// The engine performs no I/O and keeps no state between invoices, so
// invoices can be matched concurrently as long as each invoice's payments
// are only touched by one goroutine.
package matching

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"clubcheck/internal/logger"
	"clubcheck/pkg/models"
)

// DefaultDateEpsilon is the largest accepted distance between the bank
// booking date and the recorded payment date.
const DefaultDateEpsilon = 4 * 24 * time.Hour

// DefaultUpperBound is the payment amount at and above which a payment is
// considered a manual entry.
var DefaultUpperBound = decimal.NewFromInt(10000)

// Config holds the matching thresholds.
type Config struct {
	// UpperBound excludes payments with amount >= UpperBound from matching.
	UpperBound decimal.Decimal

	// DateEpsilon is the inclusive date window for amount-date matches.
	DateEpsilon time.Duration
}

// DefaultConfig returns a Config with the default thresholds.
func DefaultConfig() Config {
	return Config{
		UpperBound:  DefaultUpperBound,
		DateEpsilon: DefaultDateEpsilon,
	}
}

// Engine matches invoice payments against bank transactions.
type Engine struct {
	cfg Config
	log zerolog.Logger
}

// NewEngine creates a matching engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg: cfg,
		log: logger.WithComponent("matching"),
	}
}

// WithLogger returns a copy of the engine logging through l.
func (e *Engine) WithLogger(l zerolog.Logger) *Engine {
	return &Engine{cfg: e.cfg, log: l}
}

// Config returns the thresholds of the engine.
func (e *Engine) Config() Config {
	return e.cfg
}

// Summary describes the outcome of matching one invoice.
type Summary struct {
	InvoiceID  string
	Reference  int64
	Candidates int
	Plausible  int
	Kinds      map[models.MatchKind]int
}

// Count returns the number of payments classified as kind.
func (s Summary) Count(kind models.MatchKind) int {
	return s.Kinds[kind]
}

// Plausible reports whether the payment amount lies in (0, UpperBound).
func (e *Engine) Plausible(p *models.Payment) bool {
	return p.Amount.IsPositive() && p.Amount.LessThan(e.cfg.UpperBound)
}

// Matches reports whether t plausibly backs p, and why.
//
// Equal references win regardless of amount and date. Otherwise amounts must
// be equal and the calendar dates at most DateEpsilon apart. The time of day
// and the offset of either side are ignored.
func (e *Engine) Matches(t *models.Transaction, p *models.Payment) (models.MatchKind, bool) {
	tref, tok := t.HasReference()
	pref, pok := p.HasReference()
	if tok && pok && tref == pref {
		return models.MatchByReference, true
	}

	if !t.Amount.Equal(p.Amount) {
		return models.MatchUnmatched, false
	}

	diff := calendarDay(t.Date).Sub(calendarDay(p.PaymentDate))
	if diff < 0 {
		diff = -diff
	}
	if diff <= e.cfg.DateEpsilon {
		return models.MatchByAmountDate, true
	}
	return models.MatchUnmatched, false
}

// calendarDay returns midnight UTC of the date t has in its own location
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MatchInvoice links the invoice's payments to the candidate transactions.
//
// candidates must be the transactions carrying the invoice's reference. Every
// payment is reset first, so running MatchInvoice twice on the same input
// gives the same result. When a record fails validation no payment is
// modified and an *InvalidRecordError is returned.
func (e *Engine) MatchInvoice(inv *models.Invoice, candidates []*models.Transaction) (Summary, error) {
	const op = "MatchInvoice"

	if inv == nil {
		return Summary{}, fmt.Errorf("%s: nil invoice", op)
	}

	log := e.log.With().Str("invoice_id", inv.ID).Int64("reference", inv.Reference).Logger()

	if err := e.validate(inv, candidates); err != nil {
		return Summary{}, fmt.Errorf("%s: %w", op, err)
	}

	// Filter out manually entered payments with illegal amounts
	var plausible []*models.Payment
	for _, p := range inv.Payments {
		if e.Plausible(p) {
			plausible = append(plausible, p)
		}
	}

	for _, p := range inv.Payments {
		p.ResetMatch()
		if !e.Plausible(p) {
			log.Debug().Str("amount", p.Amount.String()).Msg("Skipping implausible payment")
			p.Classify(models.MatchImplausible)
		}
	}

	switch {
	case len(candidates) == 0:
		log.Info().Msg("No bank transactions found")
		for _, p := range plausible {
			p.Classify(models.MatchUnmatched)
		}

	case len(plausible) == 0:
		log.Warn().Int("candidates", len(candidates)).Msg("No payments found")

	case len(candidates) == 1 && len(plausible) == 1:
		// One transaction and one payment is the common case
		e.matchSingle(log, candidates[0], plausible[0])

	default:
		for _, p := range plausible {
			e.resolve(log, candidates, p)
		}
	}

	warnSharedTransactions(log, plausible)

	summary := Summary{
		InvoiceID:  inv.ID,
		Reference:  inv.Reference,
		Candidates: len(candidates),
		Plausible:  len(plausible),
		Kinds:      make(map[models.MatchKind]int),
	}
	for _, p := range inv.Payments {
		summary.Kinds[p.Match]++
	}
	return summary, nil
}

func (e *Engine) matchSingle(log zerolog.Logger, t *models.Transaction, p *models.Payment) {
	if kind, ok := e.matchLogged(log, t, p); ok {
		p.Link(t, kind)
		return
	}
	log.Warn().
		Str("transaction_id", t.ID).
		Str("payment_amount", p.Amount.String()).
		Msg("Could not match transaction and payment")
	p.Classify(models.MatchUnmatched)
}

func (e *Engine) resolve(log zerolog.Logger, candidates []*models.Transaction, p *models.Payment) {
	var matching []*models.Transaction
	var reason models.MatchKind
	for _, t := range candidates {
		if kind, ok := e.matchLogged(log, t, p); ok {
			matching = append(matching, t)
			reason = kind
		}
	}

	switch len(matching) {
	case 0:
		log.Warn().
			Int("candidates", len(candidates)).
			Str("payment_amount", p.Amount.String()).
			Msg("Could not find any matching transactions")
		p.Classify(models.MatchUnmatched)
	case 1:
		kind := reason
		if len(candidates) > 1 {
			kind = models.MatchByExclusion
			log.Info().Str("transaction_id", matching[0].ID).Msg("Matched with exclusion")
		}
		p.Link(matching[0], kind)
	default:
		log.Warn().
			Int("matching", len(matching)).
			Str("payment_amount", p.Amount.String()).
			Msg("Found multiple matching transactions")
		p.MarkAmbiguous(matching)
	}
}

func (e *Engine) matchLogged(log zerolog.Logger, t *models.Transaction, p *models.Payment) (models.MatchKind, bool) {
	kind, ok := e.Matches(t, p)
	switch {
	case kind == models.MatchByReference:
		log.Debug().Str("transaction_id", t.ID).Msg("Matched with reference")
	case kind == models.MatchByAmountDate:
		log.Info().Str("transaction_id", t.ID).Msg("Matched with date")
	case !t.Amount.Equal(p.Amount):
		log.Warn().
			Str("transaction_id", t.ID).
			Str("transaction_amount", t.Amount.String()).
			Str("payment_amount", p.Amount.String()).
			Msg("Different amounts")
	}
	return kind, ok
}

// warnSharedTransactions logs transactions committed to more than one payment.
func warnSharedTransactions(log zerolog.Logger, payments []*models.Payment) {
	seen := make(map[*models.Transaction]int)
	for _, p := range payments {
		if p.Transaction != nil {
			seen[p.Transaction]++
		}
	}
	for t, n := range seen {
		if n > 1 {
			log.Warn().Str("transaction_id", t.ID).Int("payments", n).Msg("Transaction backs several payments")
		}
	}
}

func (e *Engine) validate(inv *models.Invoice, candidates []*models.Transaction) error {
	for _, t := range candidates {
		if t == nil {
			return invalidTransaction("<nil>", "transaction", nil, "missing transaction")
		}
		if t.Date.IsZero() {
			return invalidTransaction(t.ID, "date", t.Date, "date not parsed")
		}
		ref, ok := t.HasReference()
		if !ok {
			return invalidTransaction(t.ID, "reference", "<absent>", fmt.Sprintf("does not match invoice reference %d", inv.Reference))
		}
		if ref != inv.Reference {
			return invalidTransaction(t.ID, "reference", ref, fmt.Sprintf("does not match invoice reference %d", inv.Reference))
		}
	}
	for i, p := range inv.Payments {
		if p == nil {
			return invalidPayment(fmt.Sprintf("%s#%d", inv.ID, i), "payment", nil, "missing payment")
		}
		if e.Plausible(p) && p.PaymentDate.IsZero() {
			return invalidPayment(fmt.Sprintf("%s#%d", inv.ID, i), "payment_date", p.PaymentDate, "date not parsed")
		}
	}
	return nil
}
