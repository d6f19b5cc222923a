package store

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubcheck/pkg/models"
)

func TestTransactionsFindByReference(t *testing.T) {
	s := NewTransactions()
	t1 := &models.Transaction{ID: "t1", Reference: models.Ref(1234), Amount: decimal.NewFromInt(50)}
	t2 := &models.Transaction{ID: "t2", Reference: models.Ref(1234), Amount: decimal.NewFromInt(60)}
	t3 := &models.Transaction{ID: "t3", Explanation: "JÄSENMAKSU"}
	s.InsertAll([]*models.Transaction{t1, t3, t2})

	got := s.FindByReference(1234)
	require.Len(t, got, 2)
	assert.Same(t, t1, got[0])
	assert.Same(t, t2, got[1])

	assert.Equal(t, 3, s.Len())
	assert.NotNil(t, s.FindByReference(999))
	assert.Empty(t, s.FindByReference(999))
}

func TestDuplicatesAreKept(t *testing.T) {
	s := NewInvoices()
	a := &models.Invoice{ID: "inv-1", Reference: 10}
	b := &models.Invoice{ID: "inv-1", Reference: 10}
	s.Insert(a)
	s.Insert(b)

	byID := s.FindByID("inv-1")
	require.Len(t, byID, 2)
	assert.Same(t, a, byID[0])
	assert.Same(t, b, byID[1])
	assert.Len(t, s.FindByReference(10), 2)
}

func TestResultIsACopy(t *testing.T) {
	s := NewMembers()
	s.Insert(&models.Member{ID: "m1"})

	got := s.FindByID("m1")
	got[0] = &models.Member{ID: "other"}

	assert.Equal(t, "m1", s.FindByID("m1")[0].ID)
	assert.Empty(t, s.FindByReference(1))
}

func TestConcurrentReads(t *testing.T) {
	s := NewTransactions()
	for i := 0; i < 100; i++ {
		s.Insert(&models.Transaction{Reference: models.Ref(int64(i % 10))})
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(ref int64) {
			defer wg.Done()
			assert.Len(t, s.FindByReference(ref), 10)
		}(int64(i))
	}
	wg.Wait()
	assert.Len(t, s.All(), 100)
}
