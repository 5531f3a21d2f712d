package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8501, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "SampleSuperStore_clean.csv", cfg.Database.CSVFile)
	assert.Equal(t, ".cache", cfg.Database.CacheDir)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "₹", cfg.UI.CurrencySymbol)
	assert.Equal(t, "localhost:8501", cfg.Address())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")
	t.Setenv("CSV_FILE", "/data/orders.csv")
	t.Setenv("CACHE_DIR", "")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("CURRENCY_SYMBOL", "$")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/data/orders.csv", cfg.Database.CSVFile)
	assert.Equal(t, ".cache", cfg.Database.CacheDir, "empty values fall back to the default")
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "$", cfg.UI.CurrencySymbol)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Security.AllowedOrigins)
}

func TestFromEnv_UnparsableValuesUseDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	t.Setenv("SERVER_IDLE_TIMEOUT", "forever")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8501, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"negative write timeout", "SERVER_WRITE_TIMEOUT", "-1s"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"zero rate", "SECURITY_RATE_LIMIT_RPS", "0"},
		{"zero burst", "SECURITY_RATE_LIMIT_BURST", "0"},
		{"blank currency", "CURRENCY_SYMBOL", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := fromEnv()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CSV_FILE=from-dotenv.csv\nSERVER_PORT=7000\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("SERVER_PORT", "7100")
	t.Setenv("CSV_FILE", "")
	os.Unsetenv("CSV_FILE")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv.csv", cfg.Database.CSVFile)
	assert.Equal(t, 7100, cfg.Server.Port, "real environment wins over .env")
}

func TestLoad_WithoutDotEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = Load()
	assert.NoError(t, err)
}
