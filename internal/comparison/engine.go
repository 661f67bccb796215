// Package comparison builds aligned, colored price series for side-by-side asset comparison.
package comparison

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"MarketWatch/internal/generator"
	"MarketWatch/internal/model"
)

// MaxAssets caps the selection set.
const MaxAssets = 8

// Palette colors series by selection order, cycling after the last entry.
var Palette = []string{
	"#3B82F6", "#EF4444", "#10B981", "#F59E0B",
	"#8B5CF6", "#F97316", "#06B6D4", "#84CC16",
}

// Timeframes sizes comparison series.
var Timeframes = map[string]generator.Timeframe{
	"1D": {Label: "1D", Points: 48, Interval: 30 * time.Minute},
	"1W": {Label: "1W", Points: 168, Interval: time.Hour},
	"1M": {Label: "1M", Points: 30, Interval: 24 * time.Hour},
	"3M": {Label: "3M", Points: 90, Interval: 24 * time.Hour},
	"1Y": {Label: "1Y", Points: 52, Interval: 7 * 24 * time.Hour},
}

var (
	ErrUnknownTimeframe = errors.New("unknown timeframe")
	ErrSelectionFull    = errors.New("comparison selection is full")
)

// AssetSource supplies the live asset a series is pinned to.
type AssetSource interface {
	Get(symbol string) (model.Asset, bool)
}

// Engine owns a comparison selection. It is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	gen      *generator.Generator
	selected []string
}

// NewEngine creates an empty engine drawing series from gen.
func NewEngine(gen *generator.Generator) *Engine {
	return &Engine{gen: gen}
}

// Add appends symbol to the selection. Adding a present symbol is a no-op;
// adding beyond MaxAssets returns ErrSelectionFull and changes nothing.
func (e *Engine) Add(symbol string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slices.Contains(e.selected, symbol) {
		return nil
	}
	if len(e.selected) >= MaxAssets {
		return fmt.Errorf("%w: %d assets", ErrSelectionFull, MaxAssets)
	}
	e.selected = append(e.selected, symbol)
	return nil
}

// CanAdd reports whether Add(symbol) would succeed without changing the selection.
func (e *Engine) CanAdd(symbol string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slices.Contains(e.selected, symbol) || len(e.selected) < MaxAssets {
		return nil
	}
	return fmt.Errorf("%w: %d assets", ErrSelectionFull, MaxAssets)
}

// Remove drops symbol and reports whether the selection is now empty.
func (e *Engine) Remove(symbol string) (empty bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = slices.DeleteFunc(e.selected, func(s string) bool { return s == symbol })
	return len(e.selected) == 0
}

// Clear empties the selection.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = nil
}

// Selected lists the selection in order.
func (e *Engine) Selected() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.selected)
}

// GenerateSeries builds one series per selected symbol found in assets, sized by the
// timeframe table. Each series ends at now on the asset's current price with zero change.
func (e *Engine) GenerateSeries(timeframe string, assets AssetSource, now time.Time) ([]model.ComparisonSeries, error) {
	tf, ok := Timeframes[timeframe]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeframe, timeframe)
	}
	selected := e.Selected()

	out := make([]model.ComparisonSeries, 0, len(selected))
	for i, sym := range selected {
		a, ok := assets.Get(sym)
		if !ok {
			continue
		}
		points := e.gen.Series(a.Price, a.Class, tf.Points, tf.Interval, now)
		if n := len(points); n > 0 {
			last := &points[n-1]
			last.Price = a.Price
			last.Change = 0
			last.ChangePercent = 0
		}
		out = append(out, model.ComparisonSeries{
			Symbol: sym,
			Name:   a.Name,
			Color:  Palette[i%len(Palette)],
			Points: points,
		})
	}
	return out, nil
}

// Normalize returns copies of series rescaled to percent change from each first point,
// rounded to two decimals. It does not detect already normalized input.
func Normalize(series []model.ComparisonSeries) []model.ComparisonSeries {
	out := make([]model.ComparisonSeries, len(series))
	for i, s := range series {
		ns := s
		ns.Normalized = true
		ns.Points = make([]model.PricePoint, len(s.Points))
		if len(s.Points) > 0 {
			base := s.Points[0].Price
			for j, p := range s.Points {
				np := p
				if base != 0 {
					np.Price = generator.Round((p.Price-base)/base*100, 2)
				} else {
					np.Price = 0
				}
				ns.Points[j] = np
			}
		}
		out[i] = ns
	}
	return out
}
