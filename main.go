package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"clubcheck/cmd"
	"clubcheck/internal/config"
	"clubcheck/internal/logger"
)

func main() {
	// A missing .env is normal, settings can come from the environment
	envErr := godotenv.Load()
	if errors.Is(envErr, fs.ErrNotExist) {
		envErr = nil
	}

	cfgErr := setupLogging()

	log := logger.WithComponent("main")
	if envErr != nil {
		log.Warn().Err(envErr).Msg("Ignoring unreadable .env file")
	}
	if cfgErr != nil {
		// Commands load the configuration again and report the error
		log.Warn().Err(cfgErr).Msg("Logging with defaults")
	}

	cmd.Execute()
}

// setupLogging configures the logger from the environment, falling back to
// the defaults when the configuration does not load
func setupLogging() error {
	logConfig := logger.DefaultConfig()
	cfg, cfgErr := config.Load()
	if cfgErr == nil {
		logConfig = cfg.GetLoggerConfig()
	}

	if err := logger.Setup(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return cfgErr
}
