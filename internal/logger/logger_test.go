package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	err := Setup(LogConfig{Level: "loud", Output: "stderr"})
	assert.Error(t, err)
}

func TestSetupToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "check.log")
	cfg := DefaultConfig()
	cfg.Output = path
	require.NoError(t, Setup(cfg))
	t.Cleanup(func() { SetupWriter(&bytes.Buffer{}, zerolog.InfoLevel, "json", "") })

	assert.FileExists(t, path)
}

func TestComponentFields(t *testing.T) {
	buf := &bytes.Buffer{}
	SetupWriter(buf, zerolog.DebugLevel, "json", "")

	l := WithMember(WithRunID(WithComponent("matching"), "run-1"), "42")
	l.Info().Int64("reference", 1234).Msg("Matched with reference")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "matching", entry["component"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "42", entry["member_id"])
	assert.Equal(t, "Matched with reference", entry["message"])
	assert.EqualValues(t, 1234, entry["reference"])
}

func TestLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	SetupWriter(buf, zerolog.WarnLevel, "json", "")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	l := GetLogger()
	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
