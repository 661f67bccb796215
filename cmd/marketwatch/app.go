package main

import (
	"fmt"
	"net/http"
	"os"

	"MarketWatch/internal/catalog"
	"MarketWatch/internal/collector"
	"MarketWatch/internal/comparison"
	"MarketWatch/internal/config"
	"MarketWatch/internal/dashboard"
	"MarketWatch/internal/generator"
	"MarketWatch/internal/logger"
	"MarketWatch/internal/market"
	"MarketWatch/internal/notifier"
	"MarketWatch/internal/portfolio"
	"MarketWatch/internal/recorder"
	"MarketWatch/internal/stream"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	rec      recorder.Recorder
	catalog  *catalog.Catalog
	gen      *generator.Generator
	direct   []collector.Fetcher
	market   *market.Service
	ledger   *portfolio.Ledger
	hub      *stream.Hub
	notifier *notifier.TelegramNotifier
	dash     *dashboard.Dashboard
}

func configPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// newApp loads config and wires the dashboard. The hub, the notifier and the
// configured watchlist are only wired when live is set.
func newApp(live bool) (*app, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	rec, err := recorder.Open(cfg.Database, log)
	if err != nil {
		log.Warn("init recorder failed, using noop", zap.String("driver", cfg.Database.Driver), zap.Error(err))
		rec = recorder.NewNoopRecorder()
	}

	a := &app{cfg: cfg, log: log, rec: rec, catalog: catalog.Default()}
	if cfg.Market.Seed != 0 {
		a.gen = generator.NewSeeded(cfg.Market.Seed)
	} else {
		a.gen = generator.NewRandom()
	}

	limiter := collector.NewRateLimiter()
	client := collector.NewHTTPClient(cfg.Proxy, cfg.Market.FetchTimeout)
	fetchers := a.buildFetchers(limiter, client)

	opts := market.Options{
		Fetchers:  fetchers,
		Timeout:   cfg.Market.FetchTimeout,
		BatchSize: cfg.Market.BatchSize,
		Logger:    log,
		OnFetch:   dashboard.RecordFetches(rec, log),
	}
	if !cfg.Market.DisableSynthetic {
		opts.Generator = a.gen
	}
	a.market = market.NewService(market.NewCache(cfg.Market.CacheTTL, cfg.Market.HistorySize), a.catalog, opts)

	a.ledger, err = portfolio.NewLedger(cfg.Portfolio.StateFile, decimal.NewFromFloat(cfg.Portfolio.StartingBalance), rec, log)
	if err != nil {
		rec.Close()
		return nil, fmt.Errorf("init ledger: %w", err)
	}

	a.notifier = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)

	// One-shot commands start with an empty board so Track fetches what they ask for.
	var symbols []string
	if live {
		symbols = cfg.Market.Symbols
		if len(symbols) == 0 {
			symbols = a.catalog.Symbols()
		}
	}
	deps := dashboard.Deps{
		Catalog:    a.catalog,
		Generator:  a.gen,
		Market:     a.market,
		Board:      market.NewBoard(a.catalog, symbols),
		Ledger:     a.ledger,
		Comparison: comparison.NewEngine(a.gen),
		Schedule:   cfg.Schedule,
		Logger:     log,
	}
	if live {
		a.hub = stream.NewHub(log)
		deps.Publisher = a.hub
		deps.Notifier = a.notifier
	}
	a.dash = dashboard.New(deps)
	return a, nil
}

// buildFetchers orders upstreams as proxy first, then the per-class APIs. The
// per-class fetchers are also kept in a.direct for the server-side quote proxy.
func (a *app) buildFetchers(limiter *collector.RateLimiter, client *http.Client) []collector.Fetcher {
	p := a.cfg.Providers
	var fetchers []collector.Fetcher
	if !p.Proxy.Disabled && p.Proxy.BaseURL != "" {
		limiter.SetQuota("proxy", p.Proxy.PerMinute)
		fetchers = append(fetchers, collector.NewProxyFetcher(p.Proxy.BaseURL, p.Proxy.APIKey, client, limiter))
	}
	if !p.CoinGecko.Disabled {
		limiter.SetQuota("coingecko", p.CoinGecko.PerMinute)
		a.direct = append(a.direct, collector.NewCoinGeckoFetcher(p.CoinGecko.BaseURL, client, limiter))
	}
	if !p.ExchangeRate.Disabled {
		limiter.SetQuota("exchangerate", p.ExchangeRate.PerMinute)
		a.direct = append(a.direct, collector.NewExchangeRateFetcher(p.ExchangeRate.BaseURL, client, limiter))
	}
	if !p.Yahoo.Disabled {
		limiter.SetQuota("yahoo", p.Yahoo.PerMinute)
		a.direct = append(a.direct, collector.NewYahooFetcher(p.Yahoo.BaseURL, client, limiter))
	}
	if !p.AlphaVantage.Disabled && p.AlphaVantage.APIKey != "" {
		limiter.SetQuota("alphavantage", p.AlphaVantage.PerMinute)
		a.direct = append(a.direct, collector.NewAlphaVantageFetcher(p.AlphaVantage.BaseURL, p.AlphaVantage.APIKey, client, limiter))
	}
	return append(fetchers, a.direct...)
}

func (a *app) close() {
	a.dash.StopRealtime()
	a.ledger.Persist()
	if a.hub != nil {
		a.hub.Close()
	}
	if err := a.rec.Close(); err != nil {
		a.log.Warn("close recorder", zap.Error(err))
	}
	_ = a.log.Sync()
}
