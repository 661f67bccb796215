package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether low <= min(open, close) <= max(open, close) <= high.
func (b OHLCV) Valid() bool {
	return b.Low <= b.Open && b.Low <= b.Close && b.Open <= b.High && b.Close <= b.High
}

// PricePoint is one sample of a line series.
type PricePoint struct {
	Time          time.Time `json:"time"`
	Price         float64   `json:"price"`
	Volume        float64   `json:"volume"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
}

// OrderBookEntry is one price level of a synthetic order book.
type OrderBookEntry struct {
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

// OrderBook holds bids (best first, descending) and asks (best first, ascending).
type OrderBook struct {
	Symbol string           `json:"symbol"`
	Bids   []OrderBookEntry `json:"bids"`
	Asks   []OrderBookEntry `json:"asks"`
}

// Indicators summarises technical values over a bar series.
type Indicators struct {
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"current_price"`
	SMA20         float64 `json:"sma20"`
	SMA50         float64 `json:"sma50"`
	RSI14         float64 `json:"rsi14"`
	RangeHigh     float64 `json:"range_high"`
	RangeLow      float64 `json:"range_low"`
	RangePosition float64 `json:"range_position"` // 0.0 ~ 1.0
	Rating        *Rating `json:"rating,omitempty"`
}

// FactorScore is one weighted input to a Rating. RawScore ranges from -2 to 2.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// Rating is a technical buy/sell summary derived from Indicators.
type Rating struct {
	Factors []FactorScore `json:"factors"`
	Score   float64       `json:"score"`
	Label   string        `json:"label"`
	Warning string        `json:"warning,omitempty"`
}
