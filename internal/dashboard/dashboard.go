// Package dashboard wires market data, the ledger, comparison and the realtime scheduler
// into the operations the HTTP, chat and CLI surfaces expose.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"MarketWatch/internal/calculator"
	"MarketWatch/internal/catalog"
	"MarketWatch/internal/comparison"
	"MarketWatch/internal/config"
	"MarketWatch/internal/generator"
	"MarketWatch/internal/market"
	"MarketWatch/internal/model"
	"MarketWatch/internal/notifier"
	"MarketWatch/internal/portfolio"
	"MarketWatch/internal/recorder"
	"MarketWatch/internal/scheduler"
	"MarketWatch/internal/strategy"
	"MarketWatch/internal/stream"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrUnknownAsset     = errors.New("unknown asset")
	ErrUnknownTimeframe = errors.New("unknown timeframe")
)

// IndicatorTimeframe is the candle history indicators are computed over.
const IndicatorTimeframe = "3M"

// Publisher receives live updates. *stream.Hub implements it.
type Publisher interface {
	Publish(stream.Message)
}

// Deps are the components a Dashboard coordinates. Publisher and Notifier are optional.
type Deps struct {
	Catalog    *catalog.Catalog
	Generator  *generator.Generator
	Market     *market.Service
	Board      *market.Board
	Ledger     *portfolio.Ledger
	Comparison *comparison.Engine
	Publisher  Publisher
	Notifier   *notifier.TelegramNotifier
	Schedule   config.ScheduleConfig
	Logger     *zap.Logger
}

// Dashboard implements scheduler.Refresher and owns the scheduler it drives.
type Dashboard struct {
	catalog  *catalog.Catalog
	gen      *generator.Generator
	market   *market.Service
	board    *market.Board
	ledger   *portfolio.Ledger
	compare  *comparison.Engine
	pub      Publisher
	notifier *notifier.TelegramNotifier
	sched    *scheduler.Scheduler
	logger   *zap.Logger
	now      func() time.Time

	candleMu sync.Mutex
	candles  map[candleKey][]model.OHLCV
}

type candleKey struct {
	symbol    string
	timeframe string
}

// New builds a Dashboard and its scheduler. The scheduler starts disabled.
func New(d Deps) *Dashboard {
	db := &Dashboard{
		catalog:  d.Catalog,
		gen:      d.Generator,
		market:   d.Market,
		board:    d.Board,
		ledger:   d.Ledger,
		compare:  d.Comparison,
		pub:      d.Publisher,
		notifier: d.Notifier,
		logger:   d.Logger,
		now:      time.Now,
		candles:  make(map[candleKey][]model.OHLCV),
	}
	if d.Catalog != nil && d.Generator != nil {
		d.Catalog.SetBasePriceSource(d.Generator.BasePrice)
	}
	db.sched = scheduler.New(d.Schedule, db, d.Logger)
	db.sched.OnHalt = db.onHalt
	return db
}

// Scheduler exposes the realtime scheduler.
func (d *Dashboard) Scheduler() *scheduler.Scheduler { return d.sched }

// Tick advances every tracked asset one live step, folds the new prices into cached
// candle series, revalues the ledger and publishes the updates.
func (d *Dashboard) Tick(ctx context.Context) error {
	now := d.now()
	assets := d.board.Tick(d.gen, now)

	d.candleMu.Lock()
	for _, a := range assets {
		for key, bars := range d.candles {
			if key.symbol == a.Symbol {
				d.candles[key] = d.foldTick(bars, key.timeframe, a.Price, now)
			}
		}
	}
	d.candleMu.Unlock()

	d.ledger.Revalue(d.board.Prices())
	for _, a := range assets {
		d.publishAsset(a)
	}
	return nil
}

// Refresh fetches every tracked symbol through the fallback chain and applies the quotes.
// It fails only when no symbol could be resolved.
func (d *Dashboard) Refresh(ctx context.Context) error {
	symbols := d.board.Symbols()
	quotes, err := d.market.FetchAll(ctx, symbols)
	if len(quotes) == 0 && len(symbols) > 0 {
		if err == nil {
			err = market.ErrNoDataAvailable
		}
		return err
	}
	if err != nil {
		d.logger.Warn("partial market refresh", zap.Int("resolved", len(quotes)), zap.Int("tracked", len(symbols)), zap.Error(err))
	}
	for _, q := range quotes {
		fetchedAt := d.now()
		if _, at, ok := d.market.Cache().Latest(q.Symbol); ok {
			fetchedAt = at
		}
		if d.board.ApplyFetched(q, fetchedAt) {
			if a, ok := d.board.Get(q.Symbol); ok {
				d.publishAsset(a)
			}
		}
	}
	d.ledger.Revalue(d.board.Prices())
	d.ledger.Persist()
	if d.pub != nil {
		d.pub.Publish(stream.Message{Type: stream.TypeStatus, Data: d.Status()})
	}
	return nil
}

func (d *Dashboard) publishAsset(a model.Asset) {
	if d.pub == nil {
		return
	}
	d.pub.Publish(stream.Message{
		Type:          stream.TypePriceUpdate,
		Symbol:        a.Symbol,
		Price:         a.Price,
		Change:        a.Change,
		ChangePercent: a.ChangePercent,
		Volume:        a.Volume,
		Timestamp:     a.UpdatedAt,
	})
}

// Assets lists tracked assets filtered by class and query.
func (d *Dashboard) Assets(class model.AssetClass, query string) []model.Asset {
	return d.board.List(class, query)
}

// Asset returns one tracked asset.
func (d *Dashboard) Asset(symbol string) (model.Asset, error) {
	a, ok := d.board.Get(symbol)
	if !ok {
		return model.Asset{}, fmt.Errorf("%w: %s", ErrUnknownAsset, symbol)
	}
	return a, nil
}

// Track adds symbol to the board and resolves a quote for it unless it already has one.
func (d *Dashboard) Track(ctx context.Context, symbol string) (model.Asset, error) {
	added := d.board.Track(symbol)
	if a, ok := d.board.Get(symbol); added || (ok && a.Source == "") {
		q, err := d.market.Fetch(ctx, symbol)
		if err != nil {
			d.logger.Warn("initial quote failed", zap.String("symbol", symbol), zap.Error(err))
		} else {
			d.board.Apply(q)
		}
	}
	return d.Asset(symbol)
}

// Stats summarises the tracked assets.
func (d *Dashboard) Stats() market.Stats {
	return market.ComputeStats(d.board.List("", ""))
}

// Candles returns the candle series for symbol. The first request generates a history
// ending in the current bucket; later requests and live ticks keep the last bar current.
func (d *Dashboard) Candles(symbol, timeframe string) ([]model.OHLCV, error) {
	tf, ok := generator.CandleTimeframes[timeframe]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeframe, timeframe)
	}
	a, err := d.Asset(symbol)
	if err != nil {
		return nil, err
	}
	now := d.now()
	key := candleKey{symbol: symbol, timeframe: timeframe}

	d.candleMu.Lock()
	defer d.candleMu.Unlock()
	bars, ok := d.candles[key]
	if !ok {
		end := now.Truncate(tf.Interval).Add(tf.Interval)
		bars = d.gen.Candles(a.Price, a.Class, tf.Points, tf.Interval, end)
	} else {
		bars = d.foldTick(bars, timeframe, a.Price, now)
	}
	d.candles[key] = bars
	return append([]model.OHLCV(nil), bars...), nil
}

// foldTick applies a live price to bars and keeps at most the timeframe's bar count.
func (d *Dashboard) foldTick(bars []model.OHLCV, timeframe string, price float64, now time.Time) []model.OHLCV {
	tf := generator.CandleTimeframes[timeframe]
	bars = d.gen.ApplyTick(bars, price, tf.Interval, now)
	if len(bars) > tf.Points {
		bars = append([]model.OHLCV(nil), bars[len(bars)-tf.Points:]...)
	}
	return bars
}

// OrderBook synthesises a depth snapshot around the current price.
func (d *Dashboard) OrderBook(symbol string) (*model.OrderBook, error) {
	a, err := d.Asset(symbol)
	if err != nil {
		return nil, err
	}
	return d.gen.OrderBook(a.Symbol, a.Class, a.Price), nil
}

// Indicators computes technical indicators and a rating over the symbol's daily candles.
func (d *Dashboard) Indicators(symbol string) (model.Indicators, error) {
	bars, err := d.Candles(symbol, IndicatorTimeframe)
	if err != nil {
		return model.Indicators{}, err
	}
	ind, err := calculator.Compute(symbol, bars)
	if err != nil {
		return ind, err
	}
	ind.Rating = strategy.Evaluate(ind)
	return ind, nil
}

// TradeRequest is a market order. A zero Price fills at the asset's current price.
type TradeRequest struct {
	Symbol   string          `json:"symbol"`
	Side     model.TradeSide `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// ExecuteTrade fills req against the ledger. Untracked symbols are tracked first so
// the position can be revalued by later ticks.
func (d *Dashboard) ExecuteTrade(ctx context.Context, req TradeRequest) (model.Trade, error) {
	if req.Symbol == "" {
		return model.Trade{}, fmt.Errorf("%w: missing symbol", portfolio.ErrInvalidTrade)
	}
	a, err := d.Track(ctx, req.Symbol)
	if err != nil {
		return model.Trade{}, err
	}
	price := req.Price
	if price.IsZero() {
		if a.Source == "" {
			return model.Trade{}, fmt.Errorf("%s: %w", req.Symbol, market.ErrNoDataAvailable)
		}
		price = decimal.NewFromFloat(a.Price)
	}

	trade, err := d.ledger.ExecuteTrade(req.Symbol, req.Side, req.Quantity, price)
	if err != nil {
		return model.Trade{}, err
	}
	d.ledger.Revalue(d.board.Prices())

	if d.pub != nil {
		d.pub.Publish(stream.Message{Type: stream.TypeTrade, Symbol: trade.Symbol, Data: trade, Timestamp: trade.Timestamp})
	}
	d.notify(notifier.FormatTrade(trade))
	return trade, nil
}

// Portfolio values the ledger at current prices.
func (d *Dashboard) Portfolio() portfolio.Summary {
	return portfolio.Summarize(d.ledger.Snapshot())
}

// Trades returns the trade log, most recent first.
func (d *Dashboard) Trades(limit int) []model.Trade {
	return d.ledger.Trades(limit)
}

// Compare builds the comparison series for the current selection.
func (d *Dashboard) Compare(timeframe string, normalize bool) ([]model.ComparisonSeries, error) {
	series, err := d.compare.GenerateSeries(timeframe, d.board, d.now())
	if err != nil {
		return nil, err
	}
	if normalize {
		series = comparison.Normalize(series)
	}
	return series, nil
}

// AddComparison tracks symbol and adds it to the comparison selection. A full
// selection is rejected before anything is tracked.
func (d *Dashboard) AddComparison(ctx context.Context, symbol string) error {
	if err := d.compare.CanAdd(symbol); err != nil {
		return err
	}
	if _, err := d.Track(ctx, symbol); err != nil {
		return err
	}
	return d.compare.Add(symbol)
}

// RemoveComparison drops symbol from the selection and reports whether it is now empty.
func (d *Dashboard) RemoveComparison(symbol string) bool {
	return d.compare.Remove(symbol)
}

// ClearComparison empties the selection.
func (d *Dashboard) ClearComparison() {
	d.compare.Clear()
}

// ComparisonSelection lists the selected symbols.
func (d *Dashboard) ComparisonSelection() []string {
	return d.compare.Selected()
}

// Status combines the scheduler state with the data source label.
type Status struct {
	scheduler.Status
	Source  string   `json:"source"`
	Sources []string `json:"sources"`
	Tracked int      `json:"tracked"`
}

// Status reports the realtime state.
func (d *Dashboard) Status() Status {
	return Status{
		Status:  d.sched.Status(),
		Source:  d.board.SourceStatus(),
		Sources: d.board.Sources(),
		Tracked: len(d.board.Symbols()),
	}
}

// StartRealtime enables polling.
func (d *Dashboard) StartRealtime() { d.sched.Start() }

// StopRealtime disables polling.
func (d *Dashboard) StopRealtime() { d.sched.Stop() }

// ManualRefresh forces an upstream refresh of every tracked symbol and resumes halted polling.
func (d *Dashboard) ManualRefresh(ctx context.Context) error {
	d.market.Invalidate(d.board.Symbols()...)
	return d.sched.ManualRefresh(ctx)
}

func (d *Dashboard) onHalt(err error) {
	d.notify(notifier.FormatHaltAlert(err, d.sched.Status().RetryCount))
}

func (d *Dashboard) notify(text string) {
	if !d.notifier.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := d.notifier.SendWithRetry(ctx, text, 3); err != nil {
			d.logger.Error("send notification failed", zap.Error(err))
		}
	}()
}

// RecordFetches adapts rec to the market service's fetch hook.
func RecordFetches(rec recorder.Recorder, logger *zap.Logger) func(market.FetchEvent) {
	return func(evt market.FetchEvent) {
		re := &recorder.FetchEvent{
			Timestamp: time.Now(),
			Symbol:    evt.Symbol,
			Source:    evt.Source,
			Fallbacks: evt.Fallbacks,
		}
		if evt.Err != nil {
			re.Error = evt.Err.Error()
		}
		if err := rec.RecordFetch(re); err != nil {
			logger.Warn("failed to record fetch event", zap.String("symbol", evt.Symbol), zap.Error(err))
		}
	}
}
