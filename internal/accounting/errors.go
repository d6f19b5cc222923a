package accounting

import (
	"errors"
	"fmt"

	"clubcheck/pkg/models"
)

var (
	// ErrNoRule is matched by UnmatchedError.
	ErrNoRule = errors.New("no accounting rule matches")

	// ErrNoRules is returned for a rules file without rules.
	ErrNoRules = errors.New("no accounting rules")
)

// RuleError describes a rules file row that could not be parsed.
type RuleError struct {
	Row int
	Err error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("accounting: rules row %d: %v", e.Row, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RuleError) Unwrap() error {
	return e.Err
}

// UnmatchedError lists the transactions no rule applies to.
type UnmatchedError struct {
	Transactions []*models.Transaction
}

// Error implements the error interface.
func (e *UnmatchedError) Error() string {
	first := e.Transactions[0]
	return fmt.Sprintf("accounting: no rule for %d transaction(s), first: %s %s %s",
		len(e.Transactions), first.Date.Format("02.01.2006"), first.Amount.StringFixed(2), first.Payee)
}

// Is reports ErrNoRule as the cause.
func (e *UnmatchedError) Is(target error) bool {
	return target == ErrNoRule
}
