package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide is the direction of a trade.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// TradeStatus is the lifecycle state of a trade record.
type TradeStatus string

const (
	StatusFilled    TradeStatus = "filled"
	StatusPending   TradeStatus = "pending"
	StatusCancelled TradeStatus = "cancelled"
)

// Trade is an immutable execution record.
type Trade struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Side      TradeSide       `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
	Status    TradeStatus     `json:"status"`
}

// Notional is quantity × price.
func (t Trade) Notional() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// Position is an open holding. Quantity is always positive while it exists.
type Position struct {
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	PnL          decimal.Decimal `json:"pnl"`
	PnLPercent   decimal.Decimal `json:"pnl_percent"`
}

// MarketValue is quantity × current price.
func (p Position) MarketValue() decimal.Decimal {
	return p.Quantity.Mul(p.CurrentPrice)
}

// PortfolioState is the durable ledger state: cash, open positions and the trade log (most recent first).
type PortfolioState struct {
	Balance   decimal.Decimal      `json:"balance"`
	Positions map[string]*Position `json:"positions"`
	Trades    []Trade              `json:"trades"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Equity is cash plus the market value of all positions.
func (s *PortfolioState) Equity() decimal.Decimal {
	total := s.Balance
	for _, p := range s.Positions {
		total = total.Add(p.MarketValue())
	}
	return total
}
