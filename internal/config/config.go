package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults shared by the bot, the HTTP API and the price source.
const (
	DefaultYears      = 5
	MaxYears          = 10
	DefaultMaxTickers = 5
	DefaultRiskFree   = 0.02
	MaxRiskFree       = 0.2
	DefaultPort       = "9095"
	DefaultDBPath     = "/app/data/portfolio.db"

	// usage rows older than this are pruned daily; 0 keeps everything
	DefaultUsageRetentionDays = 90
)

type Config struct {
	TelegramToken    string
	WebhookPublicURL string
	OpenAIKey        string
	Port             string
	DBPath           string
	LogLevel         string
	LogPretty        bool
	RiskFree         float64
	MaxTickers       int
	RetentionDays    int
}

// BotEnabled reports whether enough is configured to run the Telegram bot.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != "" && c.WebhookPublicURL != ""
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookPublicURL: getEnv("WEBHOOK_PUBLIC_URL", ""),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		Port:             getEnv("PORT", DefaultPort),
		DBPath:           getEnv("DB_PATH", DefaultDBPath),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		RiskFree:         DefaultRiskFree,
		MaxTickers:       DefaultMaxTickers,
		RetentionDays:    DefaultUsageRetentionDays,
	}

	if v := getEnv("LOG_PRETTY", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_PRETTY %q: %w", v, err)
		}
		cfg.LogPretty = b
	}
	if v := getEnv("DEFAULT_RISK_FREE", ""); v != "" {
		rf, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEFAULT_RISK_FREE %q: %w", v, err)
		}
		if rf < 0 || rf > MaxRiskFree {
			return Config{}, fmt.Errorf("DEFAULT_RISK_FREE %v outside [0, %v]", rf, MaxRiskFree)
		}
		cfg.RiskFree = rf
	}
	if v := getEnv("MAX_TICKERS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid MAX_TICKERS %q", v)
		}
		cfg.MaxTickers = n
	}
	if v := getEnv("USAGE_RETENTION_DAYS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid USAGE_RETENTION_DAYS %q", v)
		}
		cfg.RetentionDays = n
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}
	if cfg.TelegramToken != "" && cfg.WebhookPublicURL == "" {
		return Config{}, fmt.Errorf("missing env WEBHOOK_PUBLIC_URL (required with TELEGRAM_BOT_TOKEN)")
	}
	return cfg, nil
}
