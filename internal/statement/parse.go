package statement

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// parseDate parses Finnish statement dates (DD.MM.YYYY) with an ISO fallback
func parseDate(dateStr string) (time.Time, error) {
	cleaned := strings.TrimSpace(dateStr)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	formats := []string{
		"02.01.2006", // DD.MM.YYYY
		"2.1.2006",   // D.M.YYYY
		"02.01.06",   // DD.MM.YY
		"2.1.06",     // D.M.YY
		"2006-01-02", // ISO format (fallback)
		"20060102",   // compact bank export
	}

	for _, format := range formats {
		if date, err := time.Parse(format, cleaned); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// parseAmount parses statement amounts: decimal comma, optional sign,
// thousands separated by spaces or dots
func parseAmount(amountStr string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(amountStr)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	isNegative := false
	switch {
	case strings.HasPrefix(cleaned, "-"), strings.HasPrefix(cleaned, "\u2212"):
		isNegative = true
		cleaned = strings.TrimLeft(cleaned, "-\u2212")
	case strings.HasPrefix(cleaned, "+"):
		cleaned = strings.TrimPrefix(cleaned, "+")
	}

	// Remove currency symbols and spaces
	cleaned = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "€", "", "EUR", "").Replace(cleaned)

	// Comma is the decimal separator; dots before it group thousands
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount: %s (cleaned: %s)", amountStr, cleaned)
	}

	if isNegative {
		amount = amount.Neg()
	}
	return amount, nil
}

// parseReference returns the reference when the field is numeric; anything
// else is returned as explanation text
func parseReference(field string) (*int64, string) {
	cleaned := strings.TrimSpace(field)
	if cleaned == "" {
		return nil, ""
	}

	// Finnish references are often printed in groups of five digits
	digits := strings.NewReplacer(" ", "", "\u00a0", "").Replace(cleaned)
	ref, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || ref < 0 {
		return nil, cleaned
	}
	return &ref, ""
}
