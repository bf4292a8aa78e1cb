package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might affect defaults
	for _, key := range []string{
		"DATABASE_URL", "COINGECKO_URL", "COINGECKO_RETRY_MAX", "COINGECKO_API_PLAN", "HTTP_PORT",
		"PRICE_SYMBOL", "HISTORY_START", "UPDATE_DATE_POLICY", "UPDATE_WORKER_INTERVAL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.CoinGeckoURL != "https://api.coingecko.com/api/v3" {
		t.Errorf("CoinGeckoURL = %q, want default", cfg.CoinGeckoURL)
	}
	if cfg.CoinGeckoAPIPlan != "" {
		t.Errorf("CoinGeckoAPIPlan = %q, want empty (inferred from URL)", cfg.CoinGeckoAPIPlan)
	}
	if cfg.CoinGeckoRetryMax != 3 {
		t.Errorf("CoinGeckoRetryMax = %d, want 3", cfg.CoinGeckoRetryMax)
	}
	if cfg.CoinGeckoDelay != 6*time.Second {
		t.Errorf("CoinGeckoDelay = %v, want 6s", cfg.CoinGeckoDelay)
	}
	if cfg.Symbol != "BTC-USD" {
		t.Errorf("Symbol = %q, want BTC-USD", cfg.Symbol)
	}
	if !cfg.HistoryStart.Equal(time.Date(2014, 7, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("HistoryStart = %v, want 2014-07-11", cfg.HistoryStart)
	}
	if cfg.UpdateDatePolicy != "execution" {
		t.Errorf("UpdateDatePolicy = %q, want execution", cfg.UpdateDatePolicy)
	}
	if cfg.UpdateWorkerInterval != 0 {
		t.Errorf("UpdateWorkerInterval = %v, want disabled", cfg.UpdateWorkerInterval)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/btcdash")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("COINGECKO_RETRY_MAX", "0")
	t.Setenv("HISTORY_START", "2020-01-01")
	t.Setenv("UPDATE_DATE_POLICY", "trading")
	t.Setenv("UPDATE_WORKER_INTERVAL", "24h")
	t.Setenv("COINGECKO_API_PLAN", "pro")

	cfg := Load()

	if cfg.CoinGeckoAPIPlan != "pro" {
		t.Errorf("CoinGeckoAPIPlan = %q, want pro", cfg.CoinGeckoAPIPlan)
	}

	if cfg.DatabaseURL != "postgres://localhost/btcdash" {
		t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.CoinGeckoRetryMax != 0 {
		t.Errorf("CoinGeckoRetryMax = %d, want 0", cfg.CoinGeckoRetryMax)
	}
	if !cfg.HistoryStart.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("HistoryStart = %v, want 2020-01-01", cfg.HistoryStart)
	}
	if cfg.UpdateDatePolicy != "trading" {
		t.Errorf("UpdateDatePolicy = %q, want trading", cfg.UpdateDatePolicy)
	}
	if cfg.UpdateWorkerInterval != 24*time.Hour {
		t.Errorf("UpdateWorkerInterval = %v, want 24h", cfg.UpdateWorkerInterval)
	}
}

func TestLoadInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("COINGECKO_RETRY_MAX", "not-a-number")
	t.Setenv("COINGECKO_DELAY", "invalid-duration")
	t.Setenv("HISTORY_START", "11/07/2014")

	cfg := Load()

	if cfg.CoinGeckoRetryMax != 3 {
		t.Errorf("CoinGeckoRetryMax = %d, want default 3 on invalid input", cfg.CoinGeckoRetryMax)
	}
	if cfg.CoinGeckoDelay != 6*time.Second {
		t.Errorf("CoinGeckoDelay = %v, want default 6s on invalid input", cfg.CoinGeckoDelay)
	}
	if !cfg.HistoryStart.Equal(defaultHistoryStart) {
		t.Errorf("HistoryStart = %v, want default on invalid input", cfg.HistoryStart)
	}
}
