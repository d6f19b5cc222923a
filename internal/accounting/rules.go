// Package accounting turns bank statement transactions into double-entry
// bookings.
//
// Each transaction is booked by the first rule whose patterns match it. A
// rule names the debit and credit accounts, e.g. every payment to the hall
// operator debits 103 (hall rents) and credits 101 (bank account).
package accounting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"clubcheck/pkg/models"
)

// Direction restricts a rule to incoming or outgoing money
type Direction string

const (
	AnyDirection Direction = ""
	Incoming     Direction = "in"
	Outgoing     Direction = "out"
)

// Rule books matching transactions to a pair of accounts. Empty patterns
// match anything; a rule without patterns is a catch-all.
type Rule struct {
	Payee     string // counterparty, whole value, case-insensitive
	Type      string // bank transaction type, whole value, case-insensitive
	Message   string // substring of the message or reference, case-insensitive
	Direction Direction
	Debit     string
	Credit    string
}

// Matches reports whether the rule applies to t
func (r Rule) Matches(t *models.Transaction) bool {
	if r.Payee != "" && !strings.EqualFold(strings.TrimSpace(t.Payee), r.Payee) {
		return false
	}
	if r.Type != "" && !strings.EqualFold(strings.TrimSpace(t.RawType), r.Type) {
		return false
	}
	if r.Message != "" && !containsFold(message(t), r.Message) {
		return false
	}
	switch r.Direction {
	case Incoming:
		return t.Amount.IsPositive()
	case Outgoing:
		return t.Amount.IsNegative()
	}
	return true
}

// message returns the free-form message, or the reference when there is one
func message(t *models.Transaction) string {
	if ref, ok := t.HasReference(); ok {
		return strconv.FormatInt(ref, 10)
	}
	return t.Explanation
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Rules file headers
const (
	headerPayee     = "Saaja/maksaja"
	headerType      = "Selite"
	headerMessage   = "Viesti"
	headerDirection = "Suunta"
	headerDebit     = "Debet"
	headerCredit    = "Kredit"
)

// LoadRulesFile reads the rules from a file, see LoadRules
func LoadRulesFile(path string) ([]Rule, error) {
	const op = "LoadRulesFile"

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open rules: %w", op, err)
	}
	defer file.Close()

	rules, err := LoadRules(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	return rules, nil
}

// LoadRules reads a semicolon separated UTF-8 rules table:
//
//	Saaja/maksaja;Selite;Viesti;Suunta;Debet;Kredit
//	FUMAX OY KÄPYLÄN JALKAPALLOHALLI;;;out;103;101
//	;VIITESIIRTO;;in;101;301
//
// Debet and Kredit are required; the pattern columns are optional. Rules keep
// their order, the first match wins.
func LoadRules(src io.Reader) ([]Rule, error) {
	reader := csv.NewReader(src)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRules
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rules header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{headerDebit, headerCredit} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("rules: missing column '%s'", required)
		}
	}
	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rules []Rule
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rules: %w", err)
		}
		rowNum, _ := reader.FieldPos(0)
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}

		rule := Rule{
			Payee:   cell(row, headerPayee),
			Type:    cell(row, headerType),
			Message: cell(row, headerMessage),
			Debit:   cell(row, headerDebit),
			Credit:  cell(row, headerCredit),
		}
		if rule.Direction, err = parseDirection(cell(row, headerDirection)); err != nil {
			return nil, &RuleError{Row: rowNum, Err: err}
		}
		if rule.Debit == "" || rule.Credit == "" {
			return nil, &RuleError{Row: rowNum, Err: errors.New("debit and credit accounts are required")}
		}
		rules = append(rules, rule)
	}

	if len(rules) == 0 {
		return nil, ErrNoRules
	}
	return rules, nil
}

func parseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case AnyDirection, Incoming, Outgoing:
		return d, nil
	}
	return AnyDirection, fmt.Errorf("unknown direction %q (use in or out)", s)
}
