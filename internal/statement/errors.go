package statement

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyStatement is returned when a statement has no header row.
	ErrEmptyStatement = errors.New("statement is empty")

	// ErrNoStatements is returned when an OFX file carries no bank or card statement.
	ErrNoStatements = errors.New("no bank or credit card statements")

	// ErrUnknownFormat is returned for statement formats other than csv and ofx.
	ErrUnknownFormat = errors.New("unknown statement format")
)

// ParseError describes a statement row that could not be parsed.
type ParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("statement: row %d: column '%s': invalid value '%s': %v", e.Row, e.Column, e.Value, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingColumnError is returned when the statement header lacks a required column.
type MissingColumnError struct {
	Column string
}

// Error implements the error interface.
func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("statement: missing column '%s'", e.Column)
}
