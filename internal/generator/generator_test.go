package generator

import (
	"math"
	"testing"
	"time"

	"MarketWatch/internal/model"
)

var end = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSeries_ConvergesToCurrentPrice(t *testing.T) {
	classes := []model.AssetClass{model.ClassStock, model.ClassForex, model.ClassCrypto, model.ClassBond}
	for seed := uint64(1); seed <= 20; seed++ {
		g := NewSeeded(seed)
		for _, class := range classes {
			pts := g.Series(175.5, class, 48, 30*time.Minute, end)
			if len(pts) != 48 {
				t.Fatalf("expected 48 points, got %d", len(pts))
			}
			if last := pts[len(pts)-1].Price; last != 175.5 {
				t.Errorf("seed %d %s: last price = %v, want 175.5", seed, class, last)
			}
			if !pts[len(pts)-1].Time.Equal(end) {
				t.Errorf("last point time = %v, want %v", pts[len(pts)-1].Time, end)
			}
			for i, p := range pts {
				if p.Price <= 0 {
					t.Fatalf("seed %d: non-positive price %v at %d", seed, p.Price, i)
				}
				if i > 0 && !p.Time.After(pts[i-1].Time) {
					t.Fatalf("timestamps not increasing at %d", i)
				}
			}
		}
	}
}

func TestSeries_FloorHoldsForTinyPrices(t *testing.T) {
	g := NewSeeded(7)
	pts := g.Series(0.011, model.ClassCrypto, 200, time.Hour, end)
	for i, p := range pts {
		if p.Price < MinPrice {
			t.Fatalf("price %v below floor at %d", p.Price, i)
		}
	}
}

func TestSeries_Reproducible(t *testing.T) {
	a := NewSeeded(42).Series(100, model.ClassStock, 30, day, end)
	b := NewSeeded(42).Series(100, model.ClassStock, 30, day, end)
	for i := range a {
		if a[i].Price != b[i].Price {
			t.Fatalf("point %d differs: %v vs %v", i, a[i].Price, b[i].Price)
		}
	}
}

func TestCandles_OHLCInvariant(t *testing.T) {
	for seed := uint64(1); seed <= 30; seed++ {
		g := NewSeeded(seed)
		for label, tf := range CandleTimeframes {
			bars := g.Candles(43500, model.ClassCrypto, tf.Points, tf.Interval, end)
			if len(bars) != tf.Points {
				t.Fatalf("%s: got %d bars, want %d", label, len(bars), tf.Points)
			}
			for i, b := range bars {
				if !b.Valid() {
					t.Fatalf("seed %d %s bar %d violates OHLC ordering: %+v", seed, label, i, b)
				}
				if b.Low <= 0 {
					t.Fatalf("seed %d %s bar %d has non-positive low", seed, label, i)
				}
			}
			if last := bars[len(bars)-1].Close; last != 43500 {
				t.Errorf("%s: last close = %v, want 43500", label, last)
			}
		}
	}
}

func TestCandles_TailBlend(t *testing.T) {
	g := NewSeeded(3)
	bars := g.Candles(100, model.ClassStock, 30, day, end)
	tail := TailLength(30)
	for i := len(bars) - tail + 1; i < len(bars); i++ {
		if bars[i].Open != bars[i-1].Close {
			t.Errorf("bar %d open %v != previous close %v", i, bars[i].Open, bars[i-1].Close)
		}
	}
}

func TestTailLength(t *testing.T) {
	tests := []struct{ n, want int }{{1, 1}, {2, 2}, {7, 3}, {40, 4}, {168, 5}}
	for _, tt := range tests {
		if got := TailLength(tt.n); got != tt.want {
			t.Errorf("TailLength(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestTick_PrecisionAndFloor(t *testing.T) {
	g := NewSeeded(11)
	tests := []struct {
		class    model.AssetClass
		last     float64
		decimals int
	}{
		{model.ClassForex, 1.0853, 4},
		{model.ClassStock, 175.5, 2},
		{model.ClassCrypto, 0.095, 6},
		{model.ClassCrypto, 43500, 2},
	}
	for _, tt := range tests {
		for i := 0; i < 100; i++ {
			p := g.Tick(tt.last, tt.class)
			if p <= 0 {
				t.Fatalf("%s tick produced %v", tt.class, p)
			}
			if r := Round(p, tt.decimals); math.Abs(r-p) > 1e-12 {
				t.Errorf("%s tick %v not rounded to %d decimals", tt.class, p, tt.decimals)
			}
			if math.Abs(p-tt.last)/tt.last > ProfileFor(tt.class).TickVolatility {
				t.Errorf("%s tick moved too far: %v -> %v", tt.class, tt.last, p)
			}
		}
	}
	if p := g.Tick(0, model.ClassStock); p < MinPrice {
		t.Errorf("tick from zero = %v, want >= %v", p, MinPrice)
	}
}

func TestVolatilityOrdering(t *testing.T) {
	order := []model.AssetClass{model.ClassForex, model.ClassIndex, model.ClassCommodity, model.ClassStock, model.ClassCrypto}
	for i := 1; i < len(order); i++ {
		prev, cur := ProfileFor(order[i-1]), ProfileFor(order[i])
		if prev.CandleVolatility >= cur.CandleVolatility {
			t.Errorf("%s candle volatility should be below %s", order[i-1], order[i])
		}
		if prev.TickVolatility >= cur.TickVolatility {
			t.Errorf("%s tick volatility should be below %s", order[i-1], order[i])
		}
	}
	if ProfileFor(model.ClassBond).CandleVolatility != ProfileFor(model.ClassStock).CandleVolatility {
		t.Error("bond and stock should share mid volatility")
	}
}

func TestApplyTick(t *testing.T) {
	g := NewSeeded(5)
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	bars := []model.OHLCV{{Time: start, Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}}

	bars = g.ApplyTick(bars, 103, time.Hour, start.Add(20*time.Minute))
	if len(bars) != 1 {
		t.Fatalf("tick inside bucket appended a bar")
	}
	if bars[0].Close != 103 || bars[0].High != 103 {
		t.Errorf("last bar not updated: %+v", bars[0])
	}

	bars = g.ApplyTick(bars, 98, time.Hour, start.Add(70*time.Minute))
	if len(bars) != 2 {
		t.Fatalf("tick after bucket should append, got %d bars", len(bars))
	}
	nb := bars[1]
	if nb.Open != 103 || nb.Close != 98 || nb.Low != 98 || nb.High != 103 {
		t.Errorf("unexpected new bar: %+v", nb)
	}
	if !nb.Time.After(bars[0].Time) {
		t.Error("new bar timestamp must be after previous")
	}
	if !nb.Valid() {
		t.Errorf("new bar invalid: %+v", nb)
	}
}

func TestQuote(t *testing.T) {
	g := NewSeeded(9)
	inst := model.Instrument{Symbol: "EURUSD=X", Class: model.ClassForex, BasePrice: 1.085}
	q := g.Quote(inst, nil, end)
	if q.Source != SourceSimulation {
		t.Errorf("source = %q", q.Source)
	}
	if q.Open != 1.085 {
		t.Errorf("open = %v, want base price", q.Open)
	}
	if q.Low > q.Price || q.High < q.Price {
		t.Errorf("quote range does not bracket price: %+v", q)
	}
	if math.Abs(q.Price-1.085)/1.085 > 0.01 {
		t.Errorf("forex quote moved too far: %v", q.Price)
	}

	q2 := g.Quote(inst, []float64{1.0, 1.2}, end)
	if q2.Open != 1.2 {
		t.Errorf("open = %v, want last history price", q2.Open)
	}
}

func TestOrderBook(t *testing.T) {
	g := NewSeeded(1)
	book := g.OrderBook("AAPL", model.ClassStock, 100)
	if len(book.Bids) != OrderBookDepth || len(book.Asks) != OrderBookDepth {
		t.Fatalf("unexpected depth: %d/%d", len(book.Bids), len(book.Asks))
	}
	if book.Bids[0].Price != 99 || book.Asks[0].Price != 101 {
		t.Errorf("best levels = %v / %v, want 99 / 101", book.Bids[0].Price, book.Asks[0].Price)
	}
	for i := 1; i < OrderBookDepth; i++ {
		if book.Bids[i].Price >= book.Bids[i-1].Price {
			t.Errorf("bids not descending at %d", i)
		}
		if book.Asks[i].Price <= book.Asks[i-1].Price {
			t.Errorf("asks not ascending at %d", i)
		}
	}
	for _, e := range append(book.Bids, book.Asks...) {
		if e.Quantity < 100 || e.Quantity > 1099 {
			t.Errorf("quantity %d out of range", e.Quantity)
		}
	}
}
