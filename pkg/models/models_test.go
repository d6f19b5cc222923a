package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentSetters(t *testing.T) {
	t1 := &Transaction{ID: "t1"}
	t2 := &Transaction{ID: "t2"}
	p := &Payment{}

	p.MarkAmbiguous([]*Transaction{t1, t2})
	assert.Nil(t, p.Transaction)
	assert.Len(t, p.Candidates, 2)
	assert.Equal(t, MatchAmbiguous, p.Match)

	p.Link(t1, MatchByExclusion)
	assert.Same(t, t1, p.Transaction)
	assert.Nil(t, p.Candidates)
	assert.True(t, p.Linked())

	p.ResetMatch()
	assert.False(t, p.Linked())
	assert.Equal(t, MatchPending, p.Match)
}

func TestMarkAmbiguousCopiesCandidates(t *testing.T) {
	candidates := []*Transaction{{ID: "a"}, {ID: "b"}}
	p := &Payment{}
	p.MarkAmbiguous(candidates)

	candidates[0] = &Transaction{ID: "changed"}
	assert.Equal(t, "a", p.Candidates[0].ID)
}

func TestMatchKind(t *testing.T) {
	tests := []struct {
		kind        MatchKind
		name        string
		matched     bool
		needsReview bool
	}{
		{MatchPending, "pending", false, false},
		{MatchByReference, "reference", true, false},
		{MatchByAmountDate, "amount-date", true, false},
		{MatchByExclusion, "exclusion", true, false},
		{MatchUnmatched, "unmatched", false, true},
		{MatchAmbiguous, "ambiguous", false, true},
		{MatchImplausible, "implausible", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.matched, tt.kind.Matched())
			assert.Equal(t, tt.needsReview, tt.kind.NeedsReview())
		})
	}

	assert.Equal(t, "MatchKind(42)", MatchKind(42).String())
}

func TestMatchKindJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Kind MatchKind `json:"kind"`
	}{MatchByExclusion})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"exclusion"}`, string(out))
}

func TestMemberHelpers(t *testing.T) {
	m := &Member{
		FirstName:     "Matti",
		LastName:      "Meikäläinen",
		Memberships:   []Membership{{Level: "Pelaaja"}},
		InvoicedTotal: decimal.NewFromInt(150),
		PaidTotal:     decimal.NewFromInt(100),
	}

	assert.Equal(t, "Matti Meikäläinen", m.Name())
	assert.True(t, m.HasLevel([]string{"pelaaja"}))
	assert.False(t, m.HasLevel([]string{"Valmentaja"}))
	assert.True(t, m.Balance().Equal(decimal.NewFromInt(-50)))
}
