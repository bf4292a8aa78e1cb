package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL          string
	CoinGeckoURL         string
	CoinGeckoAPIKey      string
	CoinGeckoAPIPlan     string
	CoinGeckoDelay       time.Duration
	CoinGeckoRetryMax    int
	Symbol               string
	HistoryStart         time.Time
	UpdateDatePolicy     string
	UpdateWorkerInterval time.Duration
	HTTPPort             string
	AdminAPIKey          string
	SheetsID             string
	GoogleCredentials    string
}

// defaultHistoryStart is the first day of the tracked position.
var defaultHistoryStart = time.Date(2014, 7, 11, 0, 0, 0, 0, time.UTC)

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:          envOrDefaultWarn("DATABASE_URL", ""),
		CoinGeckoURL:         envOrDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoAPIKey:      envOrDefault("COINGECKO_API_KEY", ""),
		CoinGeckoAPIPlan:     envOrDefault("COINGECKO_API_PLAN", ""),
		CoinGeckoDelay:       envOrDefaultDuration("COINGECKO_DELAY", 6*time.Second),
		CoinGeckoRetryMax:    envOrDefaultInt("COINGECKO_RETRY_MAX", 3),
		Symbol:               envOrDefault("PRICE_SYMBOL", "BTC-USD"),
		HistoryStart:         envOrDefaultDate("HISTORY_START", defaultHistoryStart),
		UpdateDatePolicy:     envOrDefault("UPDATE_DATE_POLICY", "execution"),
		UpdateWorkerInterval: envOrDefaultDuration("UPDATE_WORKER_INTERVAL", 0),
		HTTPPort:             envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:          envOrDefault("ADMIN_API_KEY", ""),
		SheetsID:             envOrDefault("GOOGLE_SHEETS_ID", ""),
		GoogleCredentials:    envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultDate(key string, defaultVal time.Time) time.Time {
	if v := os.Getenv(key); v != "" {
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			slog.Warn("invalid date env var, using default", "key", key, "value", v, "default", defaultVal.Format(time.DateOnly))
			return defaultVal
		}
		return d
	}
	return defaultVal
}
