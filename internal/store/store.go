// Package store provides small append-only record collections indexed by id
// and by payment reference.
//
// A store is filled once at the start of a run and only read afterwards.
// Lookups never assume that ids or references are unique: every record with
// the requested key is returned, in insertion order.
package store

import (
	"sync"

	"clubcheck/pkg/models"
)

// IDFunc extracts the id of a record.
type IDFunc[T any] func(*T) string

// ReferenceFunc extracts the payment reference of a record, reporting false
// when the record has none.
type ReferenceFunc[T any] func(*T) (int64, bool)

// Store is an in-memory indexed collection. It is safe for concurrent use.
type Store[T any] struct {
	mu      sync.RWMutex
	records []*T
	byID    map[string][]*T
	byRef   map[int64][]*T

	id  IDFunc[T]
	ref ReferenceFunc[T]
}

// New creates an empty store. ref may be nil for records without references.
func New[T any](id IDFunc[T], ref ReferenceFunc[T]) *Store[T] {
	return &Store[T]{
		byID:  make(map[string][]*T),
		byRef: make(map[int64][]*T),
		id:    id,
		ref:   ref,
	}
}

// Insert appends a record. Duplicate keys are kept.
func (s *Store[T]) Insert(record *T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	if s.id != nil {
		key := s.id(record)
		s.byID[key] = append(s.byID[key], record)
	}
	if s.ref != nil {
		if ref, ok := s.ref(record); ok {
			s.byRef[ref] = append(s.byRef[ref], record)
		}
	}
}

// InsertAll appends every record in order.
func (s *Store[T]) InsertAll(records []*T) {
	for _, r := range records {
		s.Insert(r)
	}
}

// FindByReference returns all records with the reference. The result is
// never nil.
func (s *Store[T]) FindByReference(ref int64) []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.byRef[ref])
}

// FindByID returns all records with the id. The result is never nil.
func (s *Store[T]) FindByID(id string) []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.byID[id])
}

// All returns every record in insertion order.
func (s *Store[T]) All() []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.records)
}

// Len returns the number of stored records.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func clone[T any](in []*T) []*T {
	out := make([]*T, len(in))
	copy(out, in)
	return out
}

// NewTransactions returns a store of bank transactions indexed by id and reference.
func NewTransactions() *Store[models.Transaction] {
	return New[models.Transaction](
		func(t *models.Transaction) string { return t.ID },
		func(t *models.Transaction) (int64, bool) { return t.HasReference() },
	)
}

// NewInvoices returns a store of fetched invoices indexed by id and reference.
func NewInvoices() *Store[models.Invoice] {
	return New[models.Invoice](
		func(i *models.Invoice) string { return i.ID },
		func(i *models.Invoice) (int64, bool) { return i.Reference, true },
	)
}

// NewMembers returns a store of members indexed by id.
func NewMembers() *Store[models.Member] {
	return New[models.Member](
		func(m *models.Member) string { return m.ID },
		nil,
	)
}
