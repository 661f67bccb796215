package generator

import (
	"math"

	"MarketWatch/internal/model"
)

// OrderBookDepth is the number of levels on each side.
const OrderBookDepth = 10

// OrderBook builds a synthetic book around price with levels 1% of price apart.
func (g *Generator) OrderBook(symbol string, class model.AssetClass, price float64) *model.OrderBook {
	price = clamp(price)
	book := &model.OrderBook{
		Symbol: symbol,
		Bids:   make([]model.OrderBookEntry, OrderBookDepth),
		Asks:   make([]model.OrderBookEntry, OrderBookDepth),
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < OrderBookDepth; i++ {
		offset := float64(i+1) * 0.01 * price
		book.Bids[i] = g.level(class, math.Max(MinPrice, price-offset))
		book.Asks[i] = g.level(class, price+offset)
	}
	return book
}

func (g *Generator) level(class model.AssetClass, price float64) model.OrderBookEntry {
	qty := g.rng.IntN(1000) + 100
	p := RoundPrice(class, price)
	return model.OrderBookEntry{
		Price:    p,
		Quantity: qty,
		Total:    Round(p*float64(qty), 2),
	}
}
