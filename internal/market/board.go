package market

import (
	"sort"
	"sync"
	"time"

	"MarketWatch/internal/catalog"
	"MarketWatch/internal/generator"
	"MarketWatch/internal/model"
)

// Data source labels reported by Board.SourceStatus.
const (
	StatusLive     = "live"
	StatusFallback = "fallback"
	StatusOffline  = "offline"
)

// Board is the set of tracked assets the dashboard displays. Assets are
// mutated in place by quotes and ticks; readers always get copies.
type Board struct {
	mu      sync.RWMutex
	catalog *catalog.Catalog
	assets  map[string]*model.Asset
	order   []string
}

// NewBoard tracks symbols, resolving each through cat.
func NewBoard(cat *catalog.Catalog, symbols []string) *Board {
	b := &Board{catalog: cat, assets: make(map[string]*model.Asset)}
	for _, s := range symbols {
		b.Track(s)
	}
	return b
}

// Track adds symbol to the board if it is not already present and reports whether it was added.
func (b *Board) Track(symbol string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.assets[symbol]; ok {
		return false
	}
	b.assets[symbol] = model.NewAsset(b.catalog.Resolve(symbol))
	b.order = append(b.order, symbol)
	return true
}

// Symbols lists tracked symbols in insertion order.
func (b *Board) Symbols() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.order...)
}

// Apply overwrites the tracked asset with q. Untracked symbols are ignored.
func (b *Board) Apply(q *model.Quote) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.assets[q.Symbol]
	if !ok {
		return false
	}
	a.ApplyQuote(q)
	return true
}

// ApplyFetched is Apply for a quote fetched at fetchedAt. It is skipped when the asset
// has moved since then, so a cached quote never rolls back newer live prices.
func (b *Board) ApplyFetched(q *model.Quote, fetchedAt time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.assets[q.Symbol]
	if !ok || a.UpdatedAt.After(fetchedAt) {
		return false
	}
	a.ApplyQuote(q)
	return true
}

// Tick moves every observed asset one live step and returns the updated assets.
// Assets without a quote yet keep their placeholder price.
func (b *Board) Tick(gen *generator.Generator, now time.Time) []model.Asset {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Asset, 0, len(b.order))
	for _, s := range b.order {
		a := b.assets[s]
		if a.Source == "" {
			continue
		}
		prev := a.Price
		a.Price = gen.Tick(prev, a.Class)
		a.Change = generator.Round(a.Price-prev, generator.Decimals(a.Class, a.Price))
		if prev > 0 {
			a.ChangePercent = generator.Round((a.Price-prev)/prev*100, 2)
		}
		a.Volume += gen.Jitter(10000)
		if a.Price > a.High24h {
			a.High24h = a.Price
		}
		if a.Low24h == 0 || a.Price < a.Low24h {
			a.Low24h = a.Price
		}
		a.UpdatedAt = now
		out = append(out, *a)
	}
	return out
}

// Get returns a copy of the tracked asset.
func (b *Board) Get(symbol string) (model.Asset, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.assets[symbol]
	if !ok {
		return model.Asset{}, false
	}
	return *a, true
}

// List returns tracked assets, optionally restricted to class and to those matching query.
func (b *Board) List(class model.AssetClass, query string) []model.Asset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.Asset, 0, len(b.order))
	for _, s := range b.order {
		a := b.assets[s]
		if class != "" && a.Class != class {
			continue
		}
		if query != "" {
			inst, _ := b.catalog.Lookup(s)
			if !catalog.Matches(a.Symbol, a.Name, a.Exchange, inst.Country, query) {
				continue
			}
		}
		out = append(out, *a)
	}
	return out
}

// Prices maps each observed symbol to its current price. Assets that never received a
// quote are left out so nothing is valued at a placeholder.
func (b *Board) Prices() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]float64, len(b.assets))
	for s, a := range b.assets {
		if a.Source == "" {
			continue
		}
		out[s] = a.Price
	}
	return out
}

// SourceStatus is live when any asset carries upstream data, fallback when all of
// them are synthetic and offline when nothing has been fetched yet.
func (b *Board) SourceStatus() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var fetched, synthetic int
	for _, a := range b.assets {
		if a.Source == "" {
			continue
		}
		fetched++
		if a.Source == generator.SourceSimulation {
			synthetic++
		}
	}
	switch {
	case fetched == 0:
		return StatusOffline
	case synthetic == fetched:
		return StatusFallback
	default:
		return StatusLive
	}
}

// Sources lists the distinct sources currently feeding the board.
func (b *Board) Sources() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	seen := make(map[string]bool)
	for _, a := range b.assets {
		if a.Source != "" {
			seen[a.Source] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
