package market

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MarketWatch/internal/catalog"
	"MarketWatch/internal/collector"
	"MarketWatch/internal/generator"
	"MarketWatch/internal/model"
)

type stubFetcher struct {
	name  string
	price float64
	err   error
	calls atomic.Int32
	block chan struct{}
	only  model.AssetClass
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) Supports(inst model.Instrument) bool {
	return f.only == "" || inst.Class == f.only
}

func (f *stubFetcher) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.Quote{Symbol: inst.Symbol, Price: f.price, Source: f.name, Timestamp: time.Now()}, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCache_TTL(t *testing.T) {
	clk := &clock{t: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)}
	c := NewCache(30*time.Second, 100)
	c.now = clk.now

	c.Put("AAPL", &model.Quote{Symbol: "AAPL", Price: 175.5})
	clk.advance(29 * time.Second)
	if q, ok := c.Get("AAPL"); !ok || q.Price != 175.5 {
		t.Fatalf("expected fresh entry, got %v %v", q, ok)
	}
	clk.advance(time.Second)
	if _, ok := c.Get("AAPL"); ok {
		t.Fatal("entry should be stale at ttl")
	}
	if q, _, ok := c.Latest("AAPL"); !ok || q.Price != 175.5 {
		t.Fatal("Latest should ignore ttl")
	}
	if _, ok := c.Get("MSFT"); ok {
		t.Fatal("unexpected entry")
	}
}

func TestCache_HistoryRing(t *testing.T) {
	c := NewCache(time.Minute, 100)
	for i := 1; i <= 150; i++ {
		c.Put("AAPL", &model.Quote{Symbol: "AAPL", Price: float64(i)})
	}
	h := c.History("AAPL")
	if len(h) != 100 {
		t.Fatalf("history len = %d, want 100", len(h))
	}
	if h[0] != 51 || h[99] != 150 {
		t.Errorf("history bounds = %v..%v, want 51..150", h[0], h[99])
	}
	h[0] = -1
	if c.History("AAPL")[0] != 51 {
		t.Error("History must return a copy")
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := NewCache(time.Minute, 10)
	c.Put("AAPL", &model.Quote{Price: 1})
	c.Invalidate("AAPL")
	if _, ok := c.Get("AAPL"); ok {
		t.Fatal("invalidated entry still fresh")
	}
	if len(c.History("AAPL")) != 1 {
		t.Fatal("history should survive invalidation")
	}
}

func newService(fetchers []collector.Fetcher, gen *generator.Generator) *Service {
	return NewService(NewCache(30*time.Second, 100), catalog.Default(), Options{
		Fetchers:  fetchers,
		Generator: gen,
		Timeout:   time.Second,
	})
}

func TestService_FallbackOrder(t *testing.T) {
	proxy := &stubFetcher{name: "proxy", err: collector.ErrUpstreamFetchFailed}
	yahoo := &stubFetcher{name: "yahoo", price: 176}
	var events []FetchEvent
	s := newService([]collector.Fetcher{proxy, yahoo}, generator.NewSeeded(1))
	s.onFetch = func(e FetchEvent) { events = append(events, e) }

	q, err := s.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.Source != "yahoo" || q.Price != 176 {
		t.Errorf("quote = %+v, want yahoo 176", q)
	}
	if len(events) != 1 || events[0].Fallbacks != 1 || events[0].Source != "yahoo" {
		t.Errorf("events = %+v", events)
	}

	// second call is served from cache
	if _, err := s.Fetch(context.Background(), "AAPL"); err != nil {
		t.Fatal(err)
	}
	if yahoo.calls.Load() != 1 {
		t.Errorf("yahoo calls = %d, want 1", yahoo.calls.Load())
	}
}

func TestService_SkipsUnsupported(t *testing.T) {
	crypto := &stubFetcher{name: "coingecko", price: 1, only: model.ClassCrypto}
	s := newService([]collector.Fetcher{crypto}, generator.NewSeeded(1))
	q, err := s.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if crypto.calls.Load() != 0 {
		t.Error("unsupported fetcher was called")
	}
	if q.Source != generator.SourceSimulation {
		t.Errorf("source = %s, want simulation", q.Source)
	}
}

func TestService_SyntheticFallback(t *testing.T) {
	down := &stubFetcher{name: "yahoo", err: errors.New("boom")}
	s := newService([]collector.Fetcher{down}, generator.NewSeeded(1))
	q, err := s.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.Source != generator.SourceSimulation || q.Price <= 0 {
		t.Errorf("quote = %+v", q)
	}
	if len(s.Cache().History("AAPL")) != 1 {
		t.Error("synthetic quote should be cached")
	}
}

func TestService_NoDataAvailable(t *testing.T) {
	down := &stubFetcher{name: "yahoo", err: errors.New("boom")}
	s := newService([]collector.Fetcher{down}, nil)
	_, err := s.Fetch(context.Background(), "AAPL")
	if !errors.Is(err, ErrNoDataAvailable) {
		t.Fatalf("err = %v, want ErrNoDataAvailable", err)
	}
}

func TestService_DedupInFlight(t *testing.T) {
	f := &stubFetcher{name: "yahoo", price: 10, block: make(chan struct{})}
	s := newService([]collector.Fetcher{f}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Fetch(context.Background(), "AAPL"); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(f.block)
	wg.Wait()
	if n := f.calls.Load(); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}
}

func TestService_ClassHintsDoNotShareFlight(t *testing.T) {
	stock := &stubFetcher{name: "stocks", price: 100, only: model.ClassStock, block: make(chan struct{})}
	crypto := &stubFetcher{name: "crypto", price: 200, only: model.ClassCrypto}
	s := newService([]collector.Fetcher{stock, crypto}, nil)

	done := make(chan *model.Quote, 1)
	go func() {
		q, err := s.FetchAs(context.Background(), "XYZ", model.ClassStock)
		if err != nil {
			t.Error(err)
		}
		done <- q
	}()
	deadline := time.Now().Add(time.Second)
	for stock.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	q, err := s.FetchAs(context.Background(), "XYZ", model.ClassCrypto)
	if err != nil {
		t.Fatal(err)
	}
	if q.Source != "crypto" || q.Price != 200 {
		t.Errorf("crypto hint got %+v", q)
	}
	close(stock.block)
	if q := <-done; q == nil || q.Source != "stocks" || q.Price != 100 {
		t.Errorf("stock hint got %+v", q)
	}
}

func TestBoard_UnobservedAssetsNotPricedOrTicked(t *testing.T) {
	b := NewBoard(catalog.Default(), []string{"AAPL", "MSFT"})
	if got := b.Prices(); len(got) != 0 {
		t.Fatalf("prices before any quote = %v", got)
	}
	b.Apply(&model.Quote{Symbol: "AAPL", Price: 180, Source: "yahoo", Timestamp: time.Now()})
	prices := b.Prices()
	if len(prices) != 1 || prices["AAPL"] != 180 {
		t.Errorf("prices = %v, want only AAPL", prices)
	}
	updated := b.Tick(generator.NewSeeded(1), time.Now())
	if len(updated) != 1 || updated[0].Symbol != "AAPL" {
		t.Errorf("ticked = %+v, want only AAPL", updated)
	}
	if msft, _ := b.Get("MSFT"); msft.Price != 378.85 || !msft.UpdatedAt.IsZero() {
		t.Errorf("unobserved asset moved: %+v", msft)
	}
}

func TestService_FetchAll(t *testing.T) {
	f := &stubFetcher{name: "coingecko", price: 100, only: model.ClassCrypto}
	s := newService([]collector.Fetcher{f}, nil)
	quotes, err := s.FetchAll(context.Background(), []string{"BTC-USD", "AAPL", "ETH-USD"})
	if len(quotes) != 2 {
		t.Fatalf("quotes = %d, want 2", len(quotes))
	}
	if quotes[0].Symbol != "BTC-USD" || quotes[1].Symbol != "ETH-USD" {
		t.Errorf("order = %s, %s", quotes[0].Symbol, quotes[1].Symbol)
	}
	if !errors.Is(err, ErrNoDataAvailable) {
		t.Errorf("err = %v, want ErrNoDataAvailable for AAPL", err)
	}
}

func TestBoard_TickAndStatus(t *testing.T) {
	b := NewBoard(catalog.Default(), []string{"AAPL", "EURUSD=X", "AAPL"})
	if got := b.Symbols(); len(got) != 2 {
		t.Fatalf("symbols = %v", got)
	}
	if b.SourceStatus() != StatusOffline {
		t.Errorf("status = %s, want offline", b.SourceStatus())
	}

	b.Apply(&model.Quote{Symbol: "AAPL", Price: 175.5, Source: generator.SourceSimulation})
	if b.SourceStatus() != StatusFallback {
		t.Errorf("status = %s, want fallback", b.SourceStatus())
	}
	b.Apply(&model.Quote{Symbol: "EURUSD=X", Price: 1.0851, Source: "exchangerate"})
	if b.SourceStatus() != StatusLive {
		t.Errorf("status = %s, want live", b.SourceStatus())
	}

	now := time.Now()
	updated := b.Tick(generator.NewSeeded(3), now)
	if len(updated) != 2 {
		t.Fatalf("updated = %d", len(updated))
	}
	for _, a := range updated {
		if a.Price <= 0 || !a.UpdatedAt.Equal(now) {
			t.Errorf("bad tick: %+v", a)
		}
		if a.Price > a.High24h || a.Price < a.Low24h {
			t.Errorf("%s price %v outside range [%v, %v]", a.Symbol, a.Price, a.Low24h, a.High24h)
		}
	}
}

func TestBoard_ListFilter(t *testing.T) {
	b := NewBoard(catalog.Default(), []string{"AAPL", "MSFT", "BTC-USD"})
	if got := b.List(model.ClassCrypto, ""); len(got) != 1 || got[0].Symbol != "BTC-USD" {
		t.Errorf("crypto filter = %+v", got)
	}
	if got := b.List("", "apple"); len(got) != 1 || got[0].Symbol != "AAPL" {
		t.Errorf("search = %+v", got)
	}
	if _, ok := b.Get("TSLA"); ok {
		t.Error("untracked symbol returned")
	}
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats([]model.Asset{
		{Symbol: "A", Class: model.ClassStock, ChangePercent: 2, Volume: 10, Source: "yahoo"},
		{Symbol: "B", Class: model.ClassStock, ChangePercent: 5, Volume: 20, Source: "yahoo"},
		{Symbol: "C", Class: model.ClassCrypto, ChangePercent: -3, Volume: 30, Source: "simulation"},
		{Symbol: "D", Class: model.ClassForex, Volume: 40},
	})
	if st.Gainers != 2 || st.Losers != 1 || st.Unchanged != 1 {
		t.Errorf("counts = %d/%d/%d", st.Gainers, st.Losers, st.Unchanged)
	}
	if st.TopGainer == nil || st.TopGainer.Symbol != "B" {
		t.Errorf("top gainer = %+v", st.TopGainer)
	}
	if st.TopLoser == nil || st.TopLoser.Symbol != "C" {
		t.Errorf("top loser = %+v", st.TopLoser)
	}
	if st.TotalVolume != 100 || st.ByClass[model.ClassStock] != 2 || st.BySource["yahoo"] != 2 {
		t.Errorf("stats = %+v", st)
	}

	empty := ComputeStats(nil)
	if empty.TopGainer != nil || empty.TopLoser != nil {
		t.Error("empty set should have no extremes")
	}
}
