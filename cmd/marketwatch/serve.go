package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketWatch/internal/api"
	"MarketWatch/internal/market"

	"github.com/google/subcommands"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type serveCmd struct {
	addr     string
	realtime bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the dashboard API, websocket stream and chat bot" }
func (*serveCmd) Usage() string {
	return `marketwatch serve [-addr <host:port>] [-realtime]

  Serves the REST API, the /api/market-data quote proxy and the /ws price
  stream. Realtime polling starts when -realtime or schedule.auto_start is set.
`
}

func (s *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.addr, "addr", "", "Listen address. Overrides http.addr.")
	f.BoolVar(&s.realtime, "realtime", false, "Enable realtime polling on start.")
}

func (s *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()
	log := a.log

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cache *redis.Client
	if addr := a.cfg.HTTP.RedisAddr; addr != "" {
		cache = redis.NewClient(&redis.Options{Addr: addr})
		if err := cache.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, response cache disabled", zap.String("addr", addr), zap.Error(err))
			cache.Close()
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	proxy := market.NewService(
		market.NewCache(a.cfg.Market.CacheTTL, a.cfg.Market.HistorySize),
		a.catalog,
		market.Options{Fetchers: a.direct, Timeout: a.cfg.Market.FetchTimeout, Logger: log},
	)
	handler := api.NewHandler(api.Options{
		Dashboard: a.dash,
		Proxy:     proxy,
		Stream:    a.hub,
		Cache:     cache,
		CacheTTL:  a.cfg.HTTP.RedisTTL,
		Logger:    log,
	})

	addr := a.cfg.HTTP.Addr
	if s.addr != "" {
		addr = s.addr
	}
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	if a.notifier.Enabled() {
		go a.notifier.StartPolling(ctx, a.dash.HandleCommand)
		log.Info("telegram polling started")
	}

	if err := a.dash.Refresh(ctx); err != nil {
		log.Warn("initial refresh failed", zap.Error(err))
	}
	if s.realtime || a.cfg.Schedule.AutoStart {
		a.dash.StartRealtime()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping")
	case err := <-errCh:
		if err != nil {
			log.Error("http server failed", zap.Error(err))
			return subcommands.ExitFailure
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("marketwatch stopped")
	return subcommands.ExitSuccess
}
