package matching

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is matched by every InvalidRecordError.
var ErrInvalidRecord = errors.New("invalid record")

// InvalidRecordError is returned when a transaction or payment reaches the
// engine in a shape it cannot match, e.g. with an unparsed date.
type InvalidRecordError struct {
	// Record is "transaction" or "payment".
	Record string

	// ID identifies the offending record (transaction id, or invoice id and payment index).
	ID string

	// Field is the name of the offending field.
	Field string

	// Value is the offending value.
	Value interface{}

	// Reason describes what is wrong with the value.
	Reason string
}

// Error implements the error interface.
func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("matching: invalid %s %s: field '%s': %s (value: %v)", e.Record, e.ID, e.Field, e.Reason, e.Value)
}

// Is implements error matching for Go 1.13+ error handling.
func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}

func invalidTransaction(id, field string, value interface{}, reason string) *InvalidRecordError {
	return &InvalidRecordError{Record: "transaction", ID: id, Field: field, Value: value, Reason: reason}
}

func invalidPayment(id, field string, value interface{}, reason string) *InvalidRecordError {
	return &InvalidRecordError{Record: "payment", ID: id, Field: field, Value: value, Reason: reason}
}
