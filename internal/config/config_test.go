package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Market.CacheTTL != 30*time.Second {
		t.Errorf("cache ttl = %v, want 30s", cfg.Market.CacheTTL)
	}
	if cfg.Market.HistorySize != 100 {
		t.Errorf("history size = %d, want 100", cfg.Market.HistorySize)
	}
	if cfg.Schedule.TickInterval != 5*time.Second || cfg.Schedule.RefreshInterval != 30*time.Second {
		t.Errorf("intervals = %v / %v", cfg.Schedule.TickInterval, cfg.Schedule.RefreshInterval)
	}
	if cfg.Portfolio.StartingBalance != 100000 {
		t.Errorf("starting balance = %v", cfg.Portfolio.StartingBalance)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
market:
  symbols: [AAPL, BTC-USD]
  cache_ttl: 45s
schedule:
  max_retries: 3
database:
  driver: none
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MARKETWATCH_STARTING_BALANCE", "2500.5")
	t.Setenv("MARKETWATCH_SYMBOLS", "ETH-USD, EURUSD=X")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Market.CacheTTL != 45*time.Second {
		t.Errorf("cache ttl = %v, want 45s", cfg.Market.CacheTTL)
	}
	if cfg.Schedule.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", cfg.Schedule.MaxRetries)
	}
	if cfg.Portfolio.StartingBalance != 2500.5 {
		t.Errorf("starting balance = %v, want 2500.5", cfg.Portfolio.StartingBalance)
	}
	if len(cfg.Market.Symbols) != 2 || cfg.Market.Symbols[1] != "EURUSD=X" {
		t.Errorf("symbols = %v", cfg.Market.Symbols)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("market: [oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"telegram half set", func(c *Config) { c.Telegram.BotToken = "token" }},
		{"tiny tick", func(c *Config) { c.Schedule.TickInterval = time.Millisecond }},
		{"negative balance", func(c *Config) { c.Portfolio.StartingBalance = -1 }},
	}
	for _, tt := range tests {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
