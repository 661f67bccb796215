// Package catalog holds the static set of instruments the dashboard knows about.
package catalog

import (
	"math/rand/v2"
	"strings"
	"sync"

	"MarketWatch/internal/model"
)

// Catalog is a symbol index over a fixed instrument list. Unknown symbols are derived
// on first Resolve and remembered. The zero value is empty; use Default or New.
type Catalog struct {
	bySymbol map[string]model.Instrument
	ordered  []model.Instrument

	mu        sync.Mutex
	derived   map[string]model.Instrument
	basePrice func() float64
}

// New indexes the given instruments. Later duplicates replace earlier ones.
func New(instruments []model.Instrument) *Catalog {
	c := &Catalog{bySymbol: make(map[string]model.Instrument, len(instruments))}
	for _, inst := range instruments {
		inst = complete(inst)
		if _, dup := c.bySymbol[inst.Symbol]; !dup {
			c.ordered = append(c.ordered, inst)
		} else {
			for i := range c.ordered {
				if c.ordered[i].Symbol == inst.Symbol {
					c.ordered[i] = inst
				}
			}
		}
		c.bySymbol[inst.Symbol] = inst
	}
	return c
}

// Default returns a catalog of the built-in instruments.
func Default() *Catalog {
	return New(builtin)
}

// Lookup returns the instrument for symbol.
func (c *Catalog) Lookup(symbol string) (model.Instrument, bool) {
	inst, ok := c.bySymbol[symbol]
	return inst, ok
}

// SetBasePriceSource sets where derived instruments draw their base price from.
// Without one they use the runtime's random source.
func (c *Catalog) SetBasePriceSource(f func() float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.basePrice = f
}

// Resolve returns the catalog instrument or, for unknown symbols, one derived from the symbol
// text with a base price between 50 and 550. A derived instrument is built once and reused.
func (c *Catalog) Resolve(symbol string) model.Instrument {
	if inst, ok := c.Lookup(symbol); ok {
		return inst
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if inst, ok := c.derived[symbol]; ok {
		return inst
	}
	price := rand.Float64()*500 + 50
	if c.basePrice != nil {
		price = c.basePrice()
	}
	inst := complete(model.Instrument{
		Symbol:    symbol,
		Name:      symbol,
		Class:     Classify(symbol),
		Exchange:  "Unknown",
		BasePrice: price,
	})
	if c.derived == nil {
		c.derived = make(map[string]model.Instrument)
	}
	c.derived[symbol] = inst
	return inst
}

// All returns every instrument in catalog order.
func (c *Catalog) All() []model.Instrument {
	out := make([]model.Instrument, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Symbols returns every symbol in catalog order.
func (c *Catalog) Symbols() []string {
	out := make([]string, 0, len(c.ordered))
	for _, inst := range c.ordered {
		out = append(out, inst.Symbol)
	}
	return out
}

// Filter returns the instruments of one class.
func (c *Catalog) Filter(class model.AssetClass) []model.Instrument {
	var out []model.Instrument
	for _, inst := range c.ordered {
		if inst.Class == class {
			out = append(out, inst)
		}
	}
	return out
}

// Search matches query case-insensitively against symbol, name, exchange and country.
// An empty query returns everything.
func (c *Catalog) Search(query string) []model.Instrument {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.All()
	}
	var out []model.Instrument
	for _, inst := range c.ordered {
		if Matches(inst.Symbol, inst.Name, inst.Exchange, inst.Country, q) {
			out = append(out, inst)
		}
	}
	return out
}

// Matches reports whether any field contains the lower-cased query.
func Matches(symbol, name, exchange, country, query string) bool {
	for _, f := range []string{symbol, name, exchange, country} {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// CountByClass counts instruments per class.
func (c *Catalog) CountByClass() map[model.AssetClass]int {
	counts := make(map[model.AssetClass]int)
	for _, inst := range c.ordered {
		counts[inst.Class]++
	}
	return counts
}

// Classify derives an asset class from quote-vendor symbol conventions.
// It runs once per unknown symbol at ingestion; everything downstream reads Instrument.Class.
func Classify(symbol string) model.AssetClass {
	switch {
	case strings.HasSuffix(symbol, "=X"):
		return model.ClassForex
	case strings.HasSuffix(symbol, "-USD"):
		return model.ClassCrypto
	case strings.HasSuffix(symbol, "=F"):
		return model.ClassCommodity
	case strings.HasPrefix(symbol, "^"):
		return model.ClassIndex
	default:
		return model.ClassStock
	}
}

// Currency infers the quote currency from a symbol. Forex pairs quote in their second leg.
func Currency(symbol string) string {
	if strings.HasSuffix(symbol, "=X") && len(symbol) == len("EURUSD=X") {
		return symbol[3:6]
	}
	return "USD"
}

// Country maps an exchange name to an ISO country code.
func Country(exchange string) string {
	switch exchange {
	case "NASDAQ", "NYSE", "CBOE", "COMEX", "NYMEX", "CBOT", "ICE", "US Treasury":
		return "US"
	case "LSE", "UK Gilts":
		return "GB"
	case "XETRA", "Bund":
		return "DE"
	case "EURONEXT":
		return "FR"
	case "TSE", "JGB":
		return "JP"
	case "HKEX":
		return "HK"
	default:
		return "Global"
	}
}

func complete(inst model.Instrument) model.Instrument {
	if inst.Class == "" {
		inst.Class = Classify(inst.Symbol)
	}
	if inst.Name == "" {
		inst.Name = inst.Symbol
	}
	if inst.Currency == "" {
		inst.Currency = Currency(inst.Symbol)
	}
	if inst.Country == "" {
		inst.Country = Country(inst.Exchange)
	}
	return inst
}
