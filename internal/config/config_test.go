package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"TELEGRAM_BOT_TOKEN", "WEBHOOK_PUBLIC_URL", "OPENAI_API_KEY", "PORT", "DB_PATH",
		"LOG_LEVEL", "LOG_PRETTY", "DEFAULT_RISK_FREE", "MAX_TICKERS", "USAGE_RETENTION_DAYS",
	} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultRiskFree, cfg.RiskFree)
	assert.Equal(t, DefaultMaxTickers, cfg.MaxTickers)
	assert.Equal(t, DefaultUsageRetentionDays, cfg.RetentionDays)
	assert.False(t, cfg.BotEnabled())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("WEBHOOK_PUBLIC_URL", "https://example.test/telegram/webhook")
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("DEFAULT_RISK_FREE", "0.035")
	t.Setenv("MAX_TICKERS", "3")
	t.Setenv("USAGE_RETENTION_DAYS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.BotEnabled())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.InDelta(t, 0.035, cfg.RiskFree, 1e-12)
	assert.Equal(t, 3, cfg.MaxTickers)
	assert.Equal(t, 0, cfg.RetentionDays)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"risk free not a number", "DEFAULT_RISK_FREE", "abc"},
		{"risk free too high", "DEFAULT_RISK_FREE", "0.5"},
		{"max tickers zero", "MAX_TICKERS", "0"},
		{"bad port", "PORT", "http"},
		{"bad pretty flag", "LOG_PRETTY", "maybe"},
		{"negative retention", "USAGE_RETENTION_DAYS", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresWebhookWithToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	_, err := Load()
	assert.Error(t, err)
}
