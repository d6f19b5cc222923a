package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clubcheck/internal/config"
	"clubcheck/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "clubcheck",
	Short: "clubcheck - reconcile club invoice payments with bank statements",
	Long: `clubcheck cross-checks the invoice payments recorded in myClub against
the transactions of the club's bank statement.

Each payment is linked to the bank transaction backing it, by payment
reference or by amount and date. Members whose payments cannot be matched,
or match more than one transaction, are listed for manual review.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("clubcheck executed")

		_ = cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	log := logger.WithComponent("cmd")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig loads the environment configuration for a command
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
