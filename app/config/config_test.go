package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.False(t, cfg.Dev)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 256, cfg.InboxSize)
	assert.Equal(t, ArchiveNone, cfg.Archive)
	assert.Equal(t, "localhost:6379", cfg.DBHost)
	assert.Equal(t, []string{"localhost:28015"}, cfg.DBHosts)
	assert.Equal(t, 24*time.Hour, cfg.HistoryTTL)
	assert.False(t, cfg.BrokerEnabled())
}

func TestParseFromEnvironment(t *testing.T) {
	t.Setenv("POINTING_HTTP_ADDR", ":8080")
	t.Setenv("POINTING_ARCHIVE", " Rethink ")
	t.Setenv("POINTING_DB_HOSTS", "db1:28015,db2:28015")
	t.Setenv("POINTING_HISTORY_TTL", "90m")
	t.Setenv("POINTING_BROKER_HOST", "broker:61613")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ArchiveRethink, cfg.Archive)
	assert.Equal(t, []string{"db1:28015", "db2:28015"}, cfg.DBHosts)
	assert.Equal(t, 90*time.Minute, cfg.HistoryTTL)
	assert.True(t, cfg.BrokerEnabled())
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown archive", key: "POINTING_ARCHIVE", value: "mongo"},
		{name: "bad duration", key: "POINTING_HISTORY_TTL", value: "soon"},
		{name: "bad inbox", key: "POINTING_INBOX_SIZE", value: "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pointing.env")
	require.NoError(t, os.WriteFile(path, []byte("POINTING_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("POINTING_LOG_LEVEL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
