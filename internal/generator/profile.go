package generator

import (
	"math"

	"MarketWatch/internal/model"
)

// MinPrice is the floor every generated price is clamped to.
const MinPrice = 0.01

// Profile holds the per-class volatility constants. Volatility is ordered
// forex < index < commodity < stock = bond < crypto for every kind of move.
type Profile struct {
	SeriesVolatility float64 // per step of a line series
	CandleVolatility float64 // per bar of a candle series
	TickVolatility   float64 // per live tick
	QuoteVolatility  float64 // per synthetic quote refresh
	StartSpread      float64 // history starts within P × (1 ± spread)
	BaseVolume       float64
}

var profiles = map[model.AssetClass]Profile{
	model.ClassForex:     {SeriesVolatility: 0.002, CandleVolatility: 0.01, TickVolatility: 0.002, QuoteVolatility: 0.005, StartSpread: 0.05, BaseVolume: 1e9},
	model.ClassIndex:     {SeriesVolatility: 0.015, CandleVolatility: 0.03, TickVolatility: 0.006, QuoteVolatility: 0.015, StartSpread: 0.10, BaseVolume: 1e6},
	model.ClassCommodity: {SeriesVolatility: 0.02, CandleVolatility: 0.04, TickVolatility: 0.008, QuoteVolatility: 0.018, StartSpread: 0.12, BaseVolume: 1e5},
	model.ClassStock:     {SeriesVolatility: 0.03, CandleVolatility: 0.05, TickVolatility: 0.01, QuoteVolatility: 0.02, StartSpread: 0.15, BaseVolume: 5e6},
	model.ClassBond:      {SeriesVolatility: 0.03, CandleVolatility: 0.05, TickVolatility: 0.01, QuoteVolatility: 0.02, StartSpread: 0.15, BaseVolume: 1e6},
	model.ClassCrypto:    {SeriesVolatility: 0.05, CandleVolatility: 0.08, TickVolatility: 0.02, QuoteVolatility: 0.05, StartSpread: 0.15, BaseVolume: 5e7},
}

// ProfileFor returns the profile for class, defaulting to the stock profile.
func ProfileFor(class model.AssetClass) Profile {
	if p, ok := profiles[class]; ok {
		return p
	}
	return profiles[model.ClassStock]
}

// Decimals is the canonical display precision of a price: 4 for forex,
// 6 for crypto under $1, 2 otherwise.
func Decimals(class model.AssetClass, price float64) int {
	switch {
	case class == model.ClassForex:
		return 4
	case class == model.ClassCrypto && price < 1:
		return 6
	default:
		return 2
	}
}

// RoundPrice rounds price to the class precision without going below MinPrice.
func RoundPrice(class model.AssetClass, price float64) float64 {
	return math.Max(MinPrice, Round(price, Decimals(class, price)))
}

// Round rounds x half away from zero to places decimals.
func Round(x float64, places int) float64 {
	f := math.Pow(10, float64(places))
	return math.Round(x*f) / f
}

func clamp(p float64) float64 {
	if p < MinPrice || math.IsNaN(p) {
		return MinPrice
	}
	return p
}
