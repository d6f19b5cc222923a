package config

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://hallinta.myclub.fi/api/", cfg.APIBaseURL)
	assert.Equal(t, []string{"Pelaaja", "Maalivahti"}, cfg.MembershipLevels)
	assert.Equal(t, "10000", cfg.UpperBound.String())
	assert.Equal(t, 96*time.Hour, cfg.DateEpsilon)
	assert.Equal(t, 4, cfg.Workers)
	assert.Nil(t, cfg.StartDate)
	assert.Equal(t, "latin1", cfg.StatementEncoding)
	assert.Empty(t, cfg.StatementColumns)
	assert.Empty(t, cfg.AccountingRules)

	m := cfg.GetMatchingConfig()
	assert.True(t, m.UpperBound.Equal(cfg.UpperBound))
	assert.Equal(t, cfg.DateEpsilon, m.DateEpsilon)

	assert.Error(t, cfg.RequireAPI())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MYCLUB_API_TOKEN", "secret")
	t.Setenv("START_DATE", "2021-08-01")
	t.Setenv("MEMBERSHIP_LEVELS", " Pelaaja , ,Valmentaja")
	t.Setenv("PAYMENT_UPPER_BOUND", "2500.50")
	t.Setenv("MATCH_DATE_EPSILON", "36h")
	t.Setenv("CHECK_WORKERS", "8")
	t.Setenv("STATEMENT_ENCODING", "UTF-8")
	t.Setenv("STATEMENT_COLUMNS", "date=Kirjauspäivä, amount = Summa")
	t.Setenv("ACCOUNTING_RULES", "tilit.csv")

	cfg, err := Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.StartDate)
	assert.Equal(t, civil.Date{Year: 2021, Month: time.August, Day: 1}, *cfg.StartDate)
	assert.Equal(t, []string{"Pelaaja", "Valmentaja"}, cfg.MembershipLevels)
	assert.Equal(t, "2500.5", cfg.UpperBound.String())
	assert.Equal(t, 36*time.Hour, cfg.DateEpsilon)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "utf-8", cfg.StatementEncoding)
	assert.Equal(t, map[string]string{"date": "Kirjauspäivä", "amount": "Summa"}, cfg.StatementColumns)
	assert.Equal(t, "tilit.csv", cfg.AccountingRules)
	assert.NoError(t, cfg.RequireAPI())
}

func TestLoadAllMembershipLevels(t *testing.T) {
	t.Setenv("MEMBERSHIP_LEVELS", "Pelaaja,*")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.MembershipLevels)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"START_DATE", "01.08.2021"},
		{"PAYMENT_UPPER_BOUND", "lots"},
		{"PAYMENT_UPPER_BOUND", "-1"},
		{"MATCH_DATE_EPSILON", "soon"},
		{"MATCH_DATE_EPSILON", "-2"},
		{"CHECK_WORKERS", "0"},
		{"MYCLUB_TIMEOUT", "forever"},
		{"STATEMENT_ENCODING", "ebcdic"},
		{"STATEMENT_COLUMNS", "date"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetLoggerConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	lc := cfg.GetLoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "stderr", lc.Output)
}
