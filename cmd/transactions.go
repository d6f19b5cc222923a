package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clubcheck/internal/logger"
)

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "Parse bank statements and print the transactions as JSON",
	Long: `Parse one or more bank statements the way the payments command does and
print the normalized transactions as JSON. Useful for checking the column
mapping and encoding of a new statement export.

Optional environment variables:
  STATEMENT_ENCODING - latin1 or utf-8 (default: latin1)
  STATEMENT_COLUMNS - Header overrides, e.g. "date=Kirjauspäivä,amount=Summa"`,
	Example: `  # CSV export of the bank
  clubcheck transactions -f tiliote.csv

  # OFX file with a non-standard extension
  clubcheck transactions -f export.txt --format ofx`,
	RunE: runTransactions,
}

func init() {
	rootCmd.AddCommand(transactionsCmd)

	transactionsCmd.Flags().StringSliceP("file", "f", nil, "Bank statement file (repeatable)")
	transactionsCmd.Flags().String("format", "", "Statement format: csv or ofx (default: from file extension)")
	_ = transactionsCmd.MarkFlagRequired("file")
}

func runTransactions(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("transactions")

	files, _ := cmd.Flags().GetStringSlice("file")
	format, _ := cmd.Flags().GetString("format")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	transactions, err := loadTransactions(cmd.Context(), cfg, files, format, "", nil)
	if err != nil {
		return err
	}

	log.Info().
		Strs("files", files).
		Int("transactions", transactions.Len()).
		Msg("Bank statements parsed")

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(transactions.All()); err != nil {
		return fmt.Errorf("failed to encode transactions: %w", err)
	}
	return nil
}
