package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"clubcheck/internal/accounting"
	"clubcheck/internal/logger"
)

var accountingCmd = &cobra.Command{
	Use:   "accounting",
	Short: "Book bank statement transactions to accounts",
	Long: `Book every transaction of one or more bank statements to a debit and a
credit account and write the bookings as a semicolon separated CSV table.

The rules file lists the accounts per payee, transaction type, message and
direction. The first matching rule wins, e.g.

  Saaja/maksaja;Selite;Viesti;Suunta;Debet;Kredit
  FUMAX OY KÄPYLÄN JALKAPALLOHALLI;;;out;103;101
  ;VIITESIIRTO;;in;101;301

Optional environment variables:
  ACCOUNTING_RULES - Rules file (or use --rules)
  STATEMENT_ENCODING - latin1 or utf-8 (default: latin1)
  STATEMENT_COLUMNS - Header overrides, e.g. "date=Kirjauspäivä,amount=Summa"`,
	Example: `  # Book a statement with the rules of the club
  clubcheck accounting -f tiliote.csv --rules tilit.csv -o kirjanpito.csv

  # Book what the rules cover, list the rest in the log
  clubcheck accounting -f tiliote.csv --skip-unmatched`,
	RunE: runAccounting,
}

func init() {
	rootCmd.AddCommand(accountingCmd)

	accountingCmd.Flags().StringSliceP("file", "f", nil, "Bank statement file (repeatable)")
	accountingCmd.Flags().String("format", "", "Statement format: csv or ofx (default: from file extension)")
	accountingCmd.Flags().String("rules", "", "Accounting rules file (default: ACCOUNTING_RULES)")
	accountingCmd.Flags().StringP("output", "o", "", "Write the bookings to this file instead of stdout")
	accountingCmd.Flags().Bool("skip-unmatched", false, "Leave out transactions without a rule instead of failing")
	_ = accountingCmd.MarkFlagRequired("file")
}

func runAccounting(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("accounting")
	ctx := cmd.Context()

	files, _ := cmd.Flags().GetStringSlice("file")
	format, _ := cmd.Flags().GetString("format")
	rulesPath, _ := cmd.Flags().GetString("rules")
	output, _ := cmd.Flags().GetString("output")
	skipUnmatched, _ := cmd.Flags().GetBool("skip-unmatched")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if rulesPath == "" {
		rulesPath = cfg.AccountingRules
	}
	if rulesPath == "" {
		return fmt.Errorf("ACCOUNTING_RULES environment variable or --rules is required")
	}

	rules, err := accounting.LoadRulesFile(rulesPath)
	if err != nil {
		return fmt.Errorf("failed to load accounting rules: %w", err)
	}

	transactions, err := loadTransactions(ctx, cfg, files, format, "", nil)
	if err != nil {
		return err
	}

	entries, err := accounting.NewJournal(rules).Book(ctx, transactions.All())
	var unmatched *accounting.UnmatchedError
	switch {
	case errors.As(err, &unmatched) && skipUnmatched:
		log.Warn().
			Int("unmatched", len(unmatched.Transactions)).
			Msg("Transactions without a rule left out")
	case err != nil:
		return fmt.Errorf("booking failed: %w", err)
	}

	var out io.Writer = os.Stdout
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create bookings file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if err := accounting.WriteCSV(out, entries); err != nil {
		return fmt.Errorf("failed to write bookings: %w", err)
	}

	log.Info().
		Str("rules", rulesPath).
		Int("transactions", transactions.Len()).
		Int("entries", len(entries)).
		Str("output", output).
		Msg("Accounting export completed")
	return nil
}
