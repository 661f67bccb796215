package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LogConfig configures the zap logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // console | json
	OutputFile string `yaml:"output_file"`
}

// ProviderConfig configures one upstream quote provider.
type ProviderConfig struct {
	Disabled  bool   `yaml:"disabled"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	PerMinute int    `yaml:"per_minute"`
}

// ScheduleConfig configures the realtime update scheduler.
type ScheduleConfig struct {
	TickInterval    time.Duration `yaml:"tick_interval"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	MaxBackoff      time.Duration `yaml:"max_backoff"`
	MaxRetries      int           `yaml:"max_retries"`
	AutoStart       bool          `yaml:"auto_start"`
}

// DatabaseConfig selects the history recorder backend.
type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // sqlite | postgres | none
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Config holds all application configuration.
type Config struct {
	Log    LogConfig `yaml:"log"`
	Market struct {
		Symbols          []string      `yaml:"symbols"`
		CacheTTL         time.Duration `yaml:"cache_ttl"`
		HistorySize      int           `yaml:"history_size"`
		FetchTimeout     time.Duration `yaml:"fetch_timeout"`
		BatchSize        int           `yaml:"batch_size"`
		DisableSynthetic bool          `yaml:"disable_synthetic"`
		Seed             uint64        `yaml:"seed"`
	} `yaml:"market"`
	Providers struct {
		Proxy        ProviderConfig `yaml:"proxy"`
		Yahoo        ProviderConfig `yaml:"yahoo"`
		CoinGecko    ProviderConfig `yaml:"coingecko"`
		AlphaVantage ProviderConfig `yaml:"alphavantage"`
		ExchangeRate ProviderConfig `yaml:"exchangerate"`
	} `yaml:"providers"`
	Portfolio struct {
		StartingBalance float64 `yaml:"starting_balance"`
		StateFile       string  `yaml:"state_file"`
	} `yaml:"portfolio"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Database DatabaseConfig `yaml:"database"`
	HTTP     struct {
		Addr      string        `yaml:"addr"`
		RedisAddr string        `yaml:"redis_addr"`
		RedisTTL  time.Duration `yaml:"redis_ttl"`
	} `yaml:"http"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
// A missing file yields a config built from the environment and defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MARKETWATCH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MARKETWATCH_LOG_FILE"); v != "" {
		c.Log.OutputFile = v
	}
	if v := os.Getenv("MARKETWATCH_SYMBOLS"); v != "" {
		c.Market.Symbols = splitList(v)
	}
	if v := os.Getenv("MARKETWATCH_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Market.Seed = seed
		}
	}
	if v := os.Getenv("MARKETWATCH_STARTING_BALANCE"); v != "" {
		if balance, err := strconv.ParseFloat(v, 64); err == nil {
			c.Portfolio.StartingBalance = balance
		}
	}
	if v := os.Getenv("MARKETWATCH_STATE_FILE"); v != "" {
		c.Portfolio.StateFile = v
	}
	if v := os.Getenv("MARKETWATCH_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("MARKETWATCH_PROXY_URL"); v != "" {
		c.Providers.Proxy.BaseURL = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_KEY"); v != "" {
		c.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.HTTP.RedisAddr = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Database.PostgresDSN = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Market.CacheTTL == 0 {
		c.Market.CacheTTL = 30 * time.Second
	}
	if c.Market.HistorySize == 0 {
		c.Market.HistorySize = 100
	}
	if c.Market.FetchTimeout == 0 {
		c.Market.FetchTimeout = 10 * time.Second
	}
	if c.Market.BatchSize == 0 {
		c.Market.BatchSize = 10
	}
	if c.Providers.CoinGecko.BaseURL == "" {
		c.Providers.CoinGecko.BaseURL = "https://api.coingecko.com"
	}
	if c.Providers.CoinGecko.PerMinute == 0 {
		c.Providers.CoinGecko.PerMinute = 30
	}
	if c.Providers.AlphaVantage.BaseURL == "" {
		c.Providers.AlphaVantage.BaseURL = "https://www.alphavantage.co"
	}
	if c.Providers.AlphaVantage.PerMinute == 0 {
		c.Providers.AlphaVantage.PerMinute = 5
	}
	if c.Providers.ExchangeRate.BaseURL == "" {
		c.Providers.ExchangeRate.BaseURL = "https://api.exchangerate-api.com"
	}
	if c.Providers.ExchangeRate.PerMinute == 0 {
		c.Providers.ExchangeRate.PerMinute = 60
	}
	if c.Providers.Yahoo.BaseURL == "" {
		c.Providers.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Providers.Yahoo.PerMinute == 0 {
		c.Providers.Yahoo.PerMinute = 60
	}
	if c.Providers.Proxy.PerMinute == 0 {
		c.Providers.Proxy.PerMinute = 100
	}
	if c.Portfolio.StartingBalance == 0 {
		c.Portfolio.StartingBalance = 100000
	}
	if c.Portfolio.StateFile == "" {
		c.Portfolio.StateFile = "data/portfolio.json"
	}
	if c.Schedule.TickInterval == 0 {
		c.Schedule.TickInterval = 5 * time.Second
	}
	if c.Schedule.RefreshInterval == 0 {
		c.Schedule.RefreshInterval = 30 * time.Second
	}
	if c.Schedule.MaxBackoff == 0 {
		c.Schedule.MaxBackoff = 5 * time.Minute
	}
	if c.Schedule.MaxRetries == 0 {
		c.Schedule.MaxRetries = 5
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/marketwatch.db"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RedisTTL == 0 {
		c.HTTP.RedisTTL = c.Market.CacheTTL
	}
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Market.CacheTTL < 0 {
		return fmt.Errorf("market.cache_ttl must not be negative")
	}
	if c.Market.HistorySize < 2 {
		return fmt.Errorf("market.history_size must be at least 2")
	}
	if c.Market.BatchSize < 1 {
		return fmt.Errorf("market.batch_size must be positive")
	}
	if c.Portfolio.StartingBalance < 0 {
		return fmt.Errorf("portfolio.starting_balance must not be negative")
	}
	if c.Schedule.TickInterval < time.Second {
		return fmt.Errorf("schedule.tick_interval must be at least 1s")
	}
	if c.Schedule.RefreshInterval < time.Second {
		return fmt.Errorf("schedule.refresh_interval must be at least 1s")
	}
	if c.Schedule.MaxRetries < 1 {
		return fmt.Errorf("schedule.max_retries must be positive")
	}
	switch c.Database.Driver {
	case "sqlite", "none":
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("database.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or none, got %q", c.Database.Driver)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
