package statement

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"clubcheck/internal/logger"
	"clubcheck/pkg/models"
)

// OFXReader reads OFX bank and credit card statements
type OFXReader struct {
	log zerolog.Logger
}

// NewOFXReader creates an OFX statement reader
func NewOFXReader() *OFXReader {
	return &OFXReader{log: logger.WithComponent("statement-ofx")}
}

// Read parses every statement transaction in the OFX response
func (r *OFXReader) Read(ctx context.Context, src io.Reader, source string) ([]*models.Transaction, error) {
	const op = "OFXReader.Read"

	resp, err := ofxgo.ParseResponse(src)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse OFX: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(resp.Bank) == 0 && len(resp.CreditCard) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoStatements)
	}

	var transactions []*models.Transaction
	for _, msg := range append(resp.Bank, resp.CreditCard...) {
		var trns []ofxgo.Transaction
		switch stmt := msg.(type) {
		case *ofxgo.StatementResponse:
			if stmt.BankTranList != nil {
				trns = stmt.BankTranList.Transactions
			}
		case *ofxgo.CCStatementResponse:
			if stmt.BankTranList != nil {
				trns = stmt.BankTranList.Transactions
			}
		default:
			r.log.Warn().Str("source", source).Msg("Skipping unexpected OFX message")
			continue
		}

		converted, err := fromOFX(trns, source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		transactions = append(transactions, converted...)
	}

	r.log.Info().
		Str("source", source).
		Int("parsed_transactions", len(transactions)).
		Msg("OFX statement read successfully")

	return transactions, nil
}

// fromOFX converts OFX statement transactions to bank transactions
func fromOFX(trns []ofxgo.Transaction, source string) ([]*models.Transaction, error) {
	out := make([]*models.Transaction, 0, len(trns))
	for i, str := range trns {
		amount, err := decimal.NewFromString(str.TrnAmt.FloatString(2))
		if err != nil {
			return nil, &ParseError{Row: i + 1, Column: "TRNAMT", Value: str.TrnAmt.String(), Err: err}
		}

		refField := string(str.RefNum)
		if strings.TrimSpace(refField) == "" {
			refField = string(str.CheckNum)
		}
		ref, explanation := parseReference(refField)
		if ref == nil && explanation == "" {
			explanation = strings.TrimSpace(string(str.Memo))
		}

		payee := string(str.Name)
		if payee == "" && str.Payee != nil {
			payee = string(str.Payee.Name)
		}

		id := string(str.FiTID)
		if id == "" {
			id = uuid.NewString()
		}

		out = append(out, &models.Transaction{
			ID:          id,
			Date:        str.DtPosted.Time,
			Amount:      amount,
			Reference:   ref,
			Explanation: explanation,
			Payee:       payee,
			RawType:     str.TrnType.String(),
			Source:      source,
		})
	}
	return out, nil
}
