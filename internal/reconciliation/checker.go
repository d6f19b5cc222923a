// Package reconciliation checks club members' invoice payments against bank
// transactions.
//
// For every member the Checker fetches the member's invoices, lets the
// matching engine link each payment to the transaction backing it and sums
// what was invoiced and what was actually paid. Members are checked
// concurrently; reports are delivered to the sink in input order.
package reconciliation

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"clubcheck/internal/logger"
	"clubcheck/internal/matching"
	"clubcheck/internal/store"
	"clubcheck/pkg/models"
)

// DefaultWorkers is the number of members checked concurrently
const DefaultWorkers = 4

// Options controls which members and invoices are checked
type Options struct {
	Workers   int
	Levels    []string    // membership levels to check; empty checks everyone
	StartDate *civil.Date // only invoices due strictly after this date; nil checks all
}

// Checker runs reconciliation for a batch of members
type Checker struct {
	fetcher      InvoiceFetcher
	transactions TransactionIndex
	engine       *matching.Engine
	sink         Sink
	opts         Options

	invoices *store.Store[models.Invoice]
	members  *store.Store[models.Member]
	log      zerolog.Logger
}

// NewChecker creates a checker. The transaction index must be fully loaded
// before Run is called.
func NewChecker(fetcher InvoiceFetcher, transactions TransactionIndex, engine *matching.Engine, opts Options) *Checker {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Checker{
		fetcher:      fetcher,
		transactions: transactions,
		engine:       engine,
		opts:         opts,
		invoices:     store.NewInvoices(),
		members:      store.NewMembers(),
		log:          logger.WithComponent("reconciliation"),
	}
}

// WithSink sets the sink receiving member reports
func (c *Checker) WithSink(sink Sink) *Checker {
	c.sink = sink
	return c
}

// Invoices returns the invoices fetched so far
func (c *Checker) Invoices() *store.Store[models.Invoice] {
	return c.invoices
}

// Members returns the members checked so far
func (c *Checker) Members() *store.Store[models.Member] {
	return c.members
}

// Run checks the members. Per-invoice failures are recorded in the member
// reports; the returned error is only set when ctx is done, in which case the
// result holds the members finished so far.
func (c *Checker) Run(ctx context.Context, members []*models.Member) (*BatchResult, error) {
	const op = "Checker.Run"

	result := &BatchResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Kinds:     make(map[models.MatchKind]int),
	}
	log := logger.WithRunID(c.log, result.RunID)

	selected := c.selectMembers(members)
	result.Filtered = len(members) - len(selected)

	log.Info().
		Int("members", len(members)).
		Int("selected", len(selected)).
		Int("workers", c.opts.Workers).
		Msg("Starting payment check")

	reports := make([]*MemberReport, len(selected))

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for i, member := range selected {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// A member waiting for a worker is not started once ctx is done
			if ctx.Err() != nil {
				return nil
			}
			reports[i] = c.checkMember(ctx, member, log)
			return nil
		})
	}
	_ = g.Wait()

	// Finished reports are delivered even after ctx is done
	sinkCtx := context.WithoutCancel(ctx)
	for _, report := range reports {
		if report == nil {
			continue
		}
		c.members.Insert(report.Member)
		result.Reports = append(result.Reports, report)
		result.Invoices += len(report.Invoices)
		result.FailedInvoices += len(report.Errors())
		for kind, n := range report.Kinds {
			result.Kinds[kind] += n
		}

		if c.sink != nil {
			if err := c.sink.Write(sinkCtx, report); err != nil {
				log.Error().Err(err).Str("member_id", report.Member.ID).Msg("Failed to write member report")
				result.SinkErrors = append(result.SinkErrors, err)
			}
		}
	}
	result.Duration = time.Since(result.StartedAt)

	log.Info().
		Int("checked", len(result.Reports)).
		Int("invoices", result.Invoices).
		Int("failed_invoices", result.FailedInvoices).
		Int("unmatched", result.Count(models.MatchUnmatched)).
		Int("ambiguous", result.Count(models.MatchAmbiguous)).
		Dur("duration", result.Duration).
		Msg("Payment check finished")

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// selectMembers applies the level filter and drops repeated member ids, so
// each member's totals are written by one worker only
func (c *Checker) selectMembers(members []*models.Member) []*models.Member {
	seen := make(map[string]struct{}, len(members))
	selected := make([]*models.Member, 0, len(members))
	for _, m := range members {
		if _, dup := seen[m.ID]; dup {
			c.log.Warn().Str("member_id", m.ID).Msg("Member listed twice, checking once")
			continue
		}
		seen[m.ID] = struct{}{}

		if len(c.opts.Levels) > 0 && !m.HasLevel(c.opts.Levels) {
			c.log.Debug().Str("member_id", m.ID).Msg("Skipping member without a checked membership level")
			continue
		}
		selected = append(selected, m)
	}
	return selected
}

// dueInRange reports whether the invoice summary passes the start date filter
func (c *Checker) dueInRange(s models.InvoiceSummary) bool {
	return c.opts.StartDate == nil || s.DueDate.After(*c.opts.StartDate)
}

func (c *Checker) checkMember(ctx context.Context, member *models.Member, runLog zerolog.Logger) *MemberReport {
	log := logger.WithMember(runLog, member.ID)
	log.Debug().Msg("Checking member")

	report := &MemberReport{
		Member:        member,
		InvoicedTotal: decimal.Zero,
		PaidTotal:     decimal.Zero,
		Kinds:         make(map[models.MatchKind]int),
	}
	engine := c.engine.WithLogger(log)

	for _, summary := range member.Invoices {
		if !c.dueInRange(summary) {
			continue
		}
		report.InvoicedTotal = report.InvoicedTotal.Add(summary.DueAmount)

		ir := c.checkInvoice(ctx, engine, summary, log)
		if ir.Err == nil && ir.Invoice != nil {
			for _, p := range ir.Invoice.Payments {
				report.Kinds[p.Match]++
				if p.Linked() {
					report.PaidTotal = report.PaidTotal.Add(p.Transaction.Amount)
				}
			}
		}
		report.Invoices = append(report.Invoices, ir)
	}

	member.InvoicedTotal = report.InvoicedTotal
	member.PaidTotal = report.PaidTotal

	log.Debug().
		Str("invoiced", report.InvoicedTotal.StringFixed(2)).
		Str("paid", report.PaidTotal.StringFixed(2)).
		Int("needs_review", report.NeedsReview()).
		Msg("Member checked")

	return report
}

func (c *Checker) checkInvoice(ctx context.Context, engine *matching.Engine, summary models.InvoiceSummary, log zerolog.Logger) InvoiceReport {
	const op = "checkInvoice"

	ir := InvoiceReport{Summary: summary}

	if err := ctx.Err(); err != nil {
		ir.Err = fmt.Errorf("%s: invoice %s: %w", op, summary.ID, err)
		return ir
	}

	invoice, err := c.fetcher.Invoice(ctx, summary.ID)
	if err != nil {
		log.Error().Err(err).Str("invoice_id", summary.ID).Msg("Failed to fetch invoice, skipping")
		ir.Err = fmt.Errorf("%s: invoice %s: %w", op, summary.ID, err)
		return ir
	}

	// The member listing carries the current due amount and status
	invoice.DueAmount = summary.DueAmount
	invoice.Status = summary.Status
	if invoice.DueDate == (civil.Date{}) {
		invoice.DueDate = summary.DueDate
	}
	c.invoices.Insert(invoice)
	ir.Invoice = invoice

	candidates := c.transactions.FindByReference(invoice.Reference)
	ir.Match, err = engine.MatchInvoice(invoice, candidates)
	if err != nil {
		log.Error().Err(err).Str("invoice_id", summary.ID).Msg("Invalid invoice records, skipping")
		ir.Err = fmt.Errorf("%s: invoice %s: %w", op, summary.ID, err)
	}
	return ir
}
