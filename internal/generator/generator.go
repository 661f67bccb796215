// Package generator produces synthetic price paths: historical line and candle
// series that converge on the live price, single live ticks, quotes and order books.
package generator

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"MarketWatch/internal/model"
)

// Generator is safe for concurrent use. All randomness comes from the injected source.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Generator drawing from src.
func New(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// NewSeeded creates a reproducible Generator.
func NewSeeded(seed uint64) *Generator {
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandom creates a Generator seeded from the runtime's random source.
func NewRandom() *Generator {
	return NewSeeded(rand.Uint64())
}

// Timeframe sizes a generated history.
type Timeframe struct {
	Label    string        `json:"label"`
	Points   int           `json:"points"`
	Interval time.Duration `json:"interval"`
}

const day = 24 * time.Hour

// CandleTimeframes sizes candle histories.
var CandleTimeframes = map[string]Timeframe{
	"1D": {Label: "1D", Points: 24, Interval: time.Hour},
	"1W": {Label: "1W", Points: 7, Interval: day},
	"1M": {Label: "1M", Points: 30, Interval: day},
	"3M": {Label: "3M", Points: 90, Interval: day},
	"1Y": {Label: "1Y", Points: 52, Interval: 7 * day},
}

// Series generates n line points spaced interval apart and ending at end.
// The path starts away from price and its last point equals price exactly.
func (g *Generator) Series(price float64, class model.AssetClass, n int, interval time.Duration, end time.Time) []model.PricePoint {
	if n <= 0 {
		return nil
	}
	prof := ProfileFor(class)
	price = clamp(price)

	g.mu.Lock()
	defer g.mu.Unlock()

	prices := make([]float64, n)
	p := price * (1 + g.spread(prof.StartSpread))
	for i := 0; i < n; i++ {
		trend := math.Sin(float64(i)/float64(n)*2*math.Pi) * 0.001
		step := trend + (g.rng.Float64()-0.5)*prof.SeriesVolatility
		p = clamp(p * (1 + step))
		prices[i] = p
	}
	converge(prices, price)

	points := make([]model.PricePoint, n)
	for i, v := range prices {
		pt := model.PricePoint{
			Time:   end.Add(-time.Duration(n-1-i) * interval),
			Price:  v,
			Volume: math.Floor(g.rng.Float64()*1e6 + 1e5),
		}
		if i > 0 {
			pt.Change = v - prices[i-1]
			pt.ChangePercent = pt.Change / prices[i-1] * 100
		}
		points[i] = pt
	}
	return points
}

// Candles generates n bars spaced interval apart with the last bar opening at end - interval.
// The last close equals price exactly and every bar satisfies the OHLC ordering.
func (g *Generator) Candles(price float64, class model.AssetClass, n int, interval time.Duration, end time.Time) []model.OHLCV {
	if n <= 0 {
		return nil
	}
	prof := ProfileFor(class)
	vol := prof.CandleVolatility
	price = clamp(price)

	g.mu.Lock()
	defer g.mu.Unlock()

	bars := make([]model.OHLCV, n)
	open := price * (1 + g.spread(prof.StartSpread))
	for i := 0; i < n; i++ {
		trend := math.Sin(float64(i)/float64(n)*4*math.Pi) * vol * 0.4
		move := (g.rng.Float64()-0.5)*vol + trend
		cl := clamp(open * (1 + move))
		ext := vol * 0.5
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(n-i) * interval),
			Open:   open,
			High:   math.Max(open, cl) * (1 + g.rng.Float64()*ext),
			Low:    clamp(math.Min(open, cl) * (1 - g.rng.Float64()*ext)),
			Close:  cl,
			Volume: math.Floor((50000 + g.rng.Float64()*200000) * (1 + math.Abs(move)*3)),
		}
		open = cl
	}

	closes := make([]float64, n)
	for i := range bars {
		closes[i] = bars[i].Close
	}
	from := converge(closes, price)
	for i := from; i < n; i++ {
		b := &bars[i]
		if i > 0 {
			b.Open = closes[i-1]
		}
		b.Close = closes[i]
		b.High = math.Max(b.High, math.Max(b.Open, b.Close))
		b.Low = math.Min(b.Low, math.Min(b.Open, b.Close))
	}
	return bars
}

// Tick computes one live price step from last, rounded to the class precision.
func (g *Generator) Tick(last float64, class model.AssetClass) float64 {
	prof := ProfileFor(class)
	g.mu.Lock()
	step := (g.rng.Float64() - 0.5) * prof.TickVolatility
	g.mu.Unlock()
	return RoundPrice(class, clamp(clamp(last)*(1+step)))
}

// ApplyTick folds a live price into a bar series. A tick inside the last bar's
// bucket updates that bar; a later tick appends a new bar opened at the previous close.
func (g *Generator) ApplyTick(bars []model.OHLCV, price float64, interval time.Duration, now time.Time) []model.OHLCV {
	price = clamp(price)
	g.mu.Lock()
	extra := math.Floor(g.rng.Float64() * 5000)
	g.mu.Unlock()

	if len(bars) == 0 {
		return append(bars, model.OHLCV{Time: now.Truncate(interval), Open: price, High: price, Low: price, Close: price, Volume: extra})
	}
	last := &bars[len(bars)-1]
	if now.Before(last.Time.Add(interval)) {
		last.Close = price
		last.High = math.Max(last.High, price)
		last.Low = math.Min(last.Low, price)
		last.Volume += extra
		return bars
	}
	bucket := now.Truncate(interval)
	if !bucket.After(last.Time) {
		bucket = last.Time.Add(interval)
	}
	return append(bars, model.OHLCV{
		Time:   bucket,
		Open:   last.Close,
		High:   math.Max(last.Close, price),
		Low:    math.Min(last.Close, price),
		Close:  price,
		Volume: extra,
	})
}

// Jitter returns a whole number drawn uniformly from [0, max).
func (g *Generator) Jitter(max float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return math.Floor(g.rng.Float64() * max)
}

// BasePrice draws a placeholder price in [50, 550) for symbols with no known price.
func (g *Generator) BasePrice() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return 50 + g.rng.Float64()*500
}

// spread draws uniformly from [-s, s).
func (g *Generator) spread(s float64) float64 {
	return (g.rng.Float64()*2 - 1) * s
}

// TailLength is the number of trailing points blended toward the live price.
func TailLength(n int) int {
	t := n / 10
	if t < 3 {
		t = 3
	}
	if t > 5 {
		t = 5
	}
	if t > n {
		t = n
	}
	return t
}

// converge blends the tail of values linearly into target, weight 0 at the
// start of the tail and 1 at the end, and returns the first tail index.
func converge(values []float64, target float64) int {
	n := len(values)
	tail := TailLength(n)
	from := n - tail
	for j := 0; j < tail; j++ {
		w := 1.0
		if tail > 1 {
			w = float64(j) / float64(tail-1)
		}
		i := from + j
		values[i] = clamp(values[i]*(1-w) + target*w)
	}
	values[n-1] = target
	return from
}
