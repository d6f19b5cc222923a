package models

import "fmt"

// MatchKind classifies how (or whether) a payment was backed by a bank transaction
type MatchKind int

const (
	MatchPending     MatchKind = iota // not examined yet
	MatchByReference                  // transaction and payment share a reference
	MatchByAmountDate                 // same amount, dates within the window
	MatchByExclusion                  // the only candidate satisfying the predicate
	MatchUnmatched                    // no candidate satisfied the predicate
	MatchAmbiguous                    // several candidates satisfied the predicate
	MatchImplausible                  // amount outside the plausible range, never matched
)

var matchKindNames = map[MatchKind]string{
	MatchPending:      "pending",
	MatchByReference:  "reference",
	MatchByAmountDate: "amount-date",
	MatchByExclusion:  "exclusion",
	MatchUnmatched:    "unmatched",
	MatchAmbiguous:    "ambiguous",
	MatchImplausible:  "implausible",
}

// String returns the string representation of MatchKind
func (k MatchKind) String() string {
	if name, ok := matchKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("MatchKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k MatchKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Matched reports whether the kind carries a committed transaction
func (k MatchKind) Matched() bool {
	return k == MatchByReference || k == MatchByAmountDate || k == MatchByExclusion
}

// NeedsReview reports whether a person has to look at the payment
func (k MatchKind) NeedsReview() bool {
	return k == MatchUnmatched || k == MatchAmbiguous
}
