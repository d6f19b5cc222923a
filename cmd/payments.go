package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"clubcheck/internal/config"
	"clubcheck/internal/logger"
	"clubcheck/internal/matching"
	"clubcheck/internal/myclub"
	"clubcheck/internal/reconciliation"
	"clubcheck/internal/report"
	"clubcheck/internal/sheets"
	"clubcheck/internal/statement"
	"clubcheck/internal/store"
	"clubcheck/pkg/models"
)

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Check members' invoice payments against the bank statement",
	Long: `Check the invoice payments of every member of a myClub group against the
transactions of a bank statement.

Each payment is linked to a bank transaction by payment reference, or by
amount and date when several transactions share the reference. The report
lists every invoice with its payments and how they were matched, followed by
the member's invoiced and paid totals.

Required environment variables:
  MYCLUB_API_TOKEN - myClub API token
  MYCLUB_GROUP_ID - Group to check (or use --group)

Optional environment variables:
  MYCLUB_BASE_URL - API base URL (default: https://hallinta.myclub.fi/api/)
  MEMBERSHIP_LEVELS - Comma separated levels to check, "*" for everyone (default: Pelaaja,Maalivahti)
  START_DATE - Only check invoices due after this date (YYYY-MM-DD)
  PAYMENT_UPPER_BOUND - Ignore payments above this amount (default: 10000)
  MATCH_DATE_EPSILON - Allowed date difference in days or as a duration (default: 4)
  STATEMENT_ENCODING - latin1 or utf-8 (default: latin1)
  STATEMENT_COLUMNS - Header overrides, e.g. "date=Kirjauspäivä,amount=Summa"
  GOOGLE_SHEET_URL - Spreadsheet for --sheet and --statement-sheet
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - Service account for Sheets`,
	Example: `  # Check the default group against a CSV export
  clubcheck payments -f tiliote.csv

  # Several statements, another group, report to a file
  clubcheck payments -f tammikuu.csv -f helmikuu.ofx --group 1234 --output raportti.txt

  # Statement from a sheet tab, summary rows appended to the report sheet
  clubcheck payments --statement-sheet "Tili!A:K" --sheet

  # Everyone in the group, without writing to Sheets
  clubcheck payments -f tiliote.csv --all-members --sheet --dry-run`,
	RunE: runPayments,
}

func init() {
	rootCmd.AddCommand(paymentsCmd)

	paymentsCmd.Flags().StringSliceP("file", "f", nil, "Bank statement file (repeatable)")
	paymentsCmd.Flags().String("format", "", "Statement format: csv or ofx (default: from file extension)")
	paymentsCmd.Flags().String("statement-sheet", "", "Read the statement from this range of GOOGLE_SHEET_URL (e.g. Tili!A:K)")
	paymentsCmd.Flags().String("group", "", "myClub group id (default: MYCLUB_GROUP_ID)")
	paymentsCmd.Flags().Int("workers", 0, "Members checked concurrently (default: CHECK_WORKERS)")
	paymentsCmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	paymentsCmd.Flags().Bool("sheet", false, "Append member summary rows to the REPORT_SHEET tab of GOOGLE_SHEET_URL")
	paymentsCmd.Flags().Bool("all-members", false, "Check every member regardless of membership level")
	paymentsCmd.Flags().Bool("dry-run", false, "Check but don't write to Google Sheets")
}

func runPayments(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("payments")
	ctx := cmd.Context()

	// Get flags
	files, _ := cmd.Flags().GetStringSlice("file")
	format, _ := cmd.Flags().GetString("format")
	statementRange, _ := cmd.Flags().GetString("statement-sheet")
	groupID, _ := cmd.Flags().GetString("group")
	workers, _ := cmd.Flags().GetInt("workers")
	output, _ := cmd.Flags().GetString("output")
	toSheet, _ := cmd.Flags().GetBool("sheet")
	allMembers, _ := cmd.Flags().GetBool("all-members")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if len(files) == 0 && statementRange == "" {
		return fmt.Errorf("a bank statement is required: use --file or --statement-sheet")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireAPI(); err != nil {
		return err
	}
	if groupID == "" {
		groupID = cfg.GroupID
	}
	if groupID == "" {
		return fmt.Errorf("MYCLUB_GROUP_ID environment variable or --group is required")
	}
	if workers <= 0 {
		workers = cfg.Workers
	}
	levels := cfg.MembershipLevels
	if allMembers {
		levels = nil
	}

	log.Info().
		Str("group", groupID).
		Strs("files", files).
		Str("statement_sheet", statementRange).
		Int("workers", workers).
		Strs("levels", levels).
		Bool("sheet", toSheet).
		Bool("dry_run", dryRun).
		Msg("Starting payment check")

	var sheetService *sheets.Service
	if statementRange != "" || (toSheet && !dryRun) {
		if cfg.GoogleSheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required for Google Sheets access")
		}
		sheetService, err = sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			return fmt.Errorf("failed to create sheets service: %w", err)
		}
	}

	transactions, err := loadTransactions(ctx, cfg, files, format, statementRange, sheetService)
	if err != nil {
		return err
	}
	log.Info().Int("transactions", transactions.Len()).Msg("Bank statement loaded")

	client, err := myclub.NewClient(myclub.Config{
		BaseURL: cfg.APIBaseURL,
		Token:   cfg.APIToken,
		Timeout: cfg.APITimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create myClub client: %w", err)
	}

	members, err := client.MembersOfGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to fetch members of group %s: %w", groupID, err)
	}

	// Report output
	var out io.Writer = os.Stdout
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer file.Close()
		out = file
	}

	text, err := report.NewTextSink(out)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	sinks := report.MultiSink{text}
	if toSheet {
		if dryRun {
			log.Info().Str("sheet", cfg.ReportSheet).Msg("Dry run - summary rows will not be written")
		} else {
			sinks = append(sinks, sheets.NewSummarySink(sheetService, cfg.ReportSheet))
		}
	}

	engine := matching.NewEngine(cfg.GetMatchingConfig())
	checker := reconciliation.NewChecker(client, transactions, engine, reconciliation.Options{
		Workers:   workers,
		Levels:    levels,
		StartDate: cfg.StartDate,
	}).WithSink(sinks)

	result, runErr := checker.Run(ctx, members)

	// Flush whatever was checked, also after an interrupt
	if err := sinks.Flush(context.WithoutCancel(ctx)); err != nil {
		log.Error().Err(err).Msg("Failed to write member summaries")
		if runErr == nil {
			runErr = err
		}
	}

	if result != nil {
		if err := text.WriteSummary(result); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}

		log.Info().
			Str("run_id", result.RunID).
			Int("members", result.Members()).
			Int("filtered", result.Filtered).
			Int("invoices", result.Invoices).
			Int("failed_invoices", result.FailedInvoices).
			Int("needs_review", result.NeedsReview()).
			Dur("duration", result.Duration).
			Msg("Payment check completed")
	}

	if runErr != nil {
		return fmt.Errorf("payment check failed: %w", runErr)
	}
	return nil
}

// loadTransactions reads the bank statement from files or a sheet range
func loadTransactions(ctx context.Context, cfg *config.Config, files []string, format, statementRange string, source statement.RangeReader) (*store.Store[models.Transaction], error) {
	columns, err := statement.DefaultColumns().WithOverrides(cfg.StatementColumns)
	if err != nil {
		return nil, fmt.Errorf("invalid statement columns: %w", err)
	}

	transactions := store.NewTransactions()
	if len(files) > 0 {
		loader := statement.NewLoader(statement.NewCSVReader(columns, cfg.StatementEncoding))
		loaded, err := loader.LoadStore(ctx, files, format)
		if err != nil {
			return nil, fmt.Errorf("failed to load bank statement: %w", err)
		}
		transactions.InsertAll(loaded.All())
	}

	if statementRange != "" {
		rows, err := statement.NewSheetReader(source, columns).Read(ctx, statementRange)
		if err != nil {
			return nil, fmt.Errorf("failed to read bank statement sheet: %w", err)
		}
		transactions.InsertAll(rows)
	}

	return transactions, nil
}
