package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"clubcheck/internal/logger"
	"clubcheck/internal/matching"
)

type Config struct {
	// myClub API Configuration
	APIBaseURL string
	APIToken   string
	GroupID    string
	APITimeout time.Duration

	// Check Configuration
	StartDate        *civil.Date // only invoices due after this date; nil checks all
	MembershipLevels []string    // empty (or "*") keeps every member
	UpperBound       decimal.Decimal
	DateEpsilon      time.Duration
	Workers          int

	// Bank Statement Configuration
	StatementEncoding string
	StatementColumns  map[string]string // field -> header overrides

	// Optional: Google Sheets Export
	GoogleSheetURL string
	ReportSheet    string

	// Optional: Accounting Export
	AccountingRules string // rules file for the accounting command

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		APIBaseURL:        getEnv("MYCLUB_BASE_URL", "https://hallinta.myclub.fi/api/"),
		APIToken:          getEnv("MYCLUB_API_TOKEN", ""),
		GroupID:           getEnv("MYCLUB_GROUP_ID", ""),
		MembershipLevels:  levels(getEnvList("MEMBERSHIP_LEVELS", "Pelaaja,Maalivahti")),
		StatementEncoding: strings.ToLower(getEnv("STATEMENT_ENCODING", "latin1")),
		GoogleSheetURL:    getEnv("GOOGLE_SHEET_URL", ""),
		ReportSheet:       getEnv("REPORT_SHEET", "Tarkistus"),
		AccountingRules:   getEnv("ACCOUNTING_RULES", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:     getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:         getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.APITimeout, err = time.ParseDuration(getEnv("MYCLUB_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("invalid MYCLUB_TIMEOUT: %w", err)
	}

	if s := getEnv("START_DATE", ""); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("invalid START_DATE (use YYYY-MM-DD): %w", err)
		}
		config.StartDate = &d
	}

	if config.UpperBound, err = decimal.NewFromString(getEnv("PAYMENT_UPPER_BOUND", "10000")); err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_UPPER_BOUND: %w", err)
	}

	if config.DateEpsilon, err = parseEpsilon(getEnv("MATCH_DATE_EPSILON", "4")); err != nil {
		return nil, fmt.Errorf("invalid MATCH_DATE_EPSILON: %w", err)
	}

	if config.Workers, err = strconv.Atoi(getEnv("CHECK_WORKERS", "4")); err != nil {
		return nil, fmt.Errorf("invalid CHECK_WORKERS: %w", err)
	}

	if config.StatementColumns, err = parseColumns(getEnv("STATEMENT_COLUMNS", "")); err != nil {
		return nil, fmt.Errorf("invalid STATEMENT_COLUMNS: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if !c.UpperBound.IsPositive() {
		return fmt.Errorf("PAYMENT_UPPER_BOUND must be positive")
	}
	if c.DateEpsilon < 0 {
		return fmt.Errorf("MATCH_DATE_EPSILON must not be negative")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("CHECK_WORKERS must be positive")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("MYCLUB_TIMEOUT must be positive")
	}
	switch c.StatementEncoding {
	case "latin1", "iso-8859-1", "utf-8", "utf8":
	default:
		return fmt.Errorf("unsupported STATEMENT_ENCODING: %s", c.StatementEncoding)
	}
	return nil
}

// RequireAPI checks the settings needed by commands talking to myClub
func (c *Config) RequireAPI() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("MYCLUB_BASE_URL is required")
	}
	if c.APIToken == "" {
		return fmt.Errorf("MYCLUB_API_TOKEN is required")
	}
	return nil
}

// GetMatchingConfig returns the matching thresholds from the main config
func (c *Config) GetMatchingConfig() matching.Config {
	return matching.Config{
		UpperBound:  c.UpperBound,
		DateEpsilon: c.DateEpsilon,
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// levels maps the "*" wildcard to no level filter
func levels(list []string) []string {
	for _, l := range list {
		if l == "*" {
			return nil
		}
	}
	return list
}

// parseEpsilon accepts a whole number of days or a Go duration ("96h")
func parseEpsilon(s string) (time.Duration, error) {
	if days, err := strconv.Atoi(s); err == nil {
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// parseColumns parses "field=Header,field=Header" pairs
func parseColumns(s string) (map[string]string, error) {
	columns := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return columns, nil
	}
	for _, pair := range strings.Split(s, ",") {
		field, header, ok := strings.Cut(pair, "=")
		field = strings.TrimSpace(field)
		header = strings.TrimSpace(header)
		if !ok || field == "" || header == "" {
			return nil, fmt.Errorf("malformed column mapping %q", pair)
		}
		columns[field] = header
	}
	return columns, nil
}
