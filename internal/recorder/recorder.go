package recorder

import (
	"time"

	"MarketWatch/internal/model"

	"github.com/shopspring/decimal"
)

// TradeEvent records one filled trade and the cash balance it left behind.
type TradeEvent struct {
	Trade        model.Trade
	BalanceAfter decimal.Decimal
}

// PortfolioSnapshot records the valuation of the ledger at a point in time.
type PortfolioSnapshot struct {
	Timestamp time.Time
	Balance   decimal.Decimal
	Equity    decimal.Decimal
	Positions int
	Trades    int
}

// FetchEvent records how a quote fetch was resolved.
type FetchEvent struct {
	Timestamp time.Time
	Symbol    string
	Source    string // "" when every source failed
	Fallbacks int
	Error     string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordTrade(evt *TradeEvent) error
	RecordSnapshot(snap *PortfolioSnapshot) error
	RecordFetch(evt *FetchEvent) error
	Close() error
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
