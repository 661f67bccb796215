package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketWatch/internal/catalog"
	"MarketWatch/internal/collector"
	"MarketWatch/internal/generator"
	"MarketWatch/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrNoDataAvailable means every source in the fallback chain failed.
var ErrNoDataAvailable = errors.New("no data available")

// FetchEvent describes how one uncached fetch was resolved.
type FetchEvent struct {
	Symbol    string
	Source    string // empty when nothing succeeded
	Fallbacks int    // upstreams that failed before the result
	Err       error
}

// Options configures a Service.
type Options struct {
	Fetchers  []collector.Fetcher
	Generator *generator.Generator // nil disables the synthetic fallback
	Timeout   time.Duration        // per upstream attempt
	BatchSize int                  // concurrent fetches in FetchAll
	Logger    *zap.Logger
	OnFetch   func(FetchEvent)
}

// Service resolves quotes: cache first, then each supporting upstream in order,
// then the generator. Concurrent fetches of one symbol share a single upstream call.
type Service struct {
	cache    *Cache
	catalog  *catalog.Catalog
	fetchers []collector.Fetcher
	gen      *generator.Generator
	timeout  time.Duration
	batch    int
	logger   *zap.Logger
	onFetch  func(FetchEvent)
	group    singleflight.Group
	now      func() time.Time
}

// NewService creates a Service over cache and cat.
func NewService(cache *Cache, cat *catalog.Catalog, opts Options) *Service {
	s := &Service{
		cache:    cache,
		catalog:  cat,
		fetchers: opts.Fetchers,
		gen:      opts.Generator,
		timeout:  opts.Timeout,
		batch:    opts.BatchSize,
		logger:   opts.Logger,
		onFetch:  opts.OnFetch,
		now:      time.Now,
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Second
	}
	if s.batch <= 0 {
		s.batch = 10
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Cache exposes the underlying cache.
func (s *Service) Cache() *Cache { return s.cache }

// Fetch returns a quote for symbol. Upstream failures are logged and trigger the next fallback;
// only when all sources fail is ErrNoDataAvailable returned.
func (s *Service) Fetch(ctx context.Context, symbol string) (*model.Quote, error) {
	return s.FetchAs(ctx, symbol, "")
}

// FetchAs is Fetch with an asset class hint that overrides the catalog's classification.
func (s *Service) FetchAs(ctx context.Context, symbol string, class model.AssetClass) (*model.Quote, error) {
	if q, ok := s.cache.Get(symbol); ok {
		return q, nil
	}
	// Calls with different class hints resolve different instruments and must not share a flight.
	v, err, _ := s.group.Do(symbol+"|"+string(class), func() (any, error) {
		inst := s.catalog.Resolve(symbol)
		if class != "" {
			inst.Class = class
		}
		return s.fetch(ctx, inst)
	})
	if err != nil {
		return nil, err
	}
	q := *v.(*model.Quote)
	return &q, nil
}

func (s *Service) fetch(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	symbol := inst.Symbol
	evt := FetchEvent{Symbol: symbol}

	var lastErr error
	for _, f := range s.fetchers {
		if !f.Supports(inst) {
			continue
		}
		fctx, cancel := context.WithTimeout(ctx, s.timeout)
		q, err := f.FetchQuote(fctx, inst)
		cancel()
		if err != nil {
			s.logger.Warn("upstream fetch failed, falling back",
				zap.String("symbol", symbol), zap.String("source", f.Name()), zap.Error(err))
			evt.Fallbacks++
			lastErr = err
			continue
		}
		s.cache.Put(symbol, q)
		evt.Source = q.Source
		s.emit(evt)
		return q, nil
	}

	if s.gen != nil {
		q := s.gen.Quote(inst, s.cache.History(symbol), s.now())
		s.cache.Put(symbol, q)
		evt.Source = q.Source
		s.emit(evt)
		return q, nil
	}

	err := fmt.Errorf("%s: %w", symbol, ErrNoDataAvailable)
	if lastErr != nil {
		err = fmt.Errorf("%s: %w (last error: %v)", symbol, ErrNoDataAvailable, lastErr)
	}
	evt.Err = err
	s.emit(evt)
	return nil, err
}

func (s *Service) emit(evt FetchEvent) {
	if s.onFetch != nil {
		s.onFetch(evt)
	}
}

// FetchAll fetches symbols with at most BatchSize requests in flight. It returns the quotes
// that resolved, in input order, and a joined error for the ones that did not.
func (s *Service) FetchAll(ctx context.Context, symbols []string) ([]*model.Quote, error) {
	results := make([]*model.Quote, len(symbols))
	errs := make([]error, len(symbols))

	var g errgroup.Group
	g.SetLimit(s.batch)
	for i, symbol := range symbols {
		g.Go(func() error {
			q, err := s.Fetch(ctx, symbol)
			results[i], errs[i] = q, err
			return nil
		})
	}
	_ = g.Wait()

	quotes := make([]*model.Quote, 0, len(symbols))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, q)
		}
	}
	return quotes, errors.Join(errs...)
}

// Invalidate forces the next Fetch of each symbol to go upstream.
func (s *Service) Invalidate(symbols ...string) {
	s.cache.Invalidate(symbols...)
}
