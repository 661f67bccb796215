// Package portfolio is the paper-trading ledger: cash, positions and the trade log.
package portfolio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"MarketWatch/internal/model"
	"MarketWatch/internal/recorder"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrInsufficientBalance rejects a buy whose cost exceeds the cash balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientShares rejects a sell larger than the held quantity.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrInvalidTrade rejects non-positive quantities or prices and unknown sides.
	ErrInvalidTrade = errors.New("invalid trade")
)

var hundred = decimal.NewFromInt(100)

// Ledger handles trade execution and valuation with concurrency safety.
// A rejected trade leaves the state untouched.
type Ledger struct {
	mu       sync.Mutex
	state    *model.PortfolioState
	filePath string
	recorder recorder.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewLedger creates a Ledger, loading state from filePath or starting fresh with startingBalance.
// An empty filePath keeps the ledger in memory only.
func NewLedger(filePath string, startingBalance decimal.Decimal, rec recorder.Recorder, logger *zap.Logger) (*Ledger, error) {
	state := &model.PortfolioState{}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, fmt.Errorf("load portfolio state: %w", err)
		}
	}

	// Positions is nil only for a state that was never saved.
	if state.Positions == nil {
		state.Balance = startingBalance
		state.Positions = make(map[string]*model.Position)
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}

	l := &Ledger{state: state, filePath: filePath, recorder: rec, logger: logger, now: time.Now}
	if err := l.save(); err != nil {
		return nil, err
	}
	return l, nil
}

// ExecuteTrade fills a market order at price. A buy debits quantity × price and folds the
// fill into the weighted average cost; a sell credits the proceeds and removes the position
// once its quantity reaches zero. The filled trade is prepended to the log.
func (l *Ledger) ExecuteTrade(symbol string, side model.TradeSide, quantity, price decimal.Decimal) (model.Trade, error) {
	if symbol == "" || !quantity.IsPositive() || !price.IsPositive() {
		return model.Trade{}, fmt.Errorf("%w: symbol=%q quantity=%s price=%s", ErrInvalidTrade, symbol, quantity, price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	notional := quantity.Mul(price)
	pos := l.state.Positions[symbol]

	switch side {
	case model.SideBuy:
		if notional.GreaterThan(l.state.Balance) {
			return model.Trade{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientBalance, notional.StringFixed(2), l.state.Balance.StringFixed(2))
		}
		l.state.Balance = l.state.Balance.Sub(notional)
		if pos == nil {
			pos = &model.Position{Symbol: symbol, Quantity: decimal.Zero, AvgCost: decimal.Zero}
			l.state.Positions[symbol] = pos
		}
		total := pos.Quantity.Add(quantity)
		pos.AvgCost = pos.Quantity.Mul(pos.AvgCost).Add(notional).Div(total)
		pos.Quantity = total
		mark(pos, price)

	case model.SideSell:
		if pos == nil || quantity.GreaterThan(pos.Quantity) {
			held := decimal.Zero
			if pos != nil {
				held = pos.Quantity
			}
			return model.Trade{}, fmt.Errorf("%w: selling %s %s, holding %s", ErrInsufficientShares, quantity, symbol, held)
		}
		l.state.Balance = l.state.Balance.Add(notional)
		pos.Quantity = pos.Quantity.Sub(quantity)
		if pos.Quantity.IsZero() {
			delete(l.state.Positions, symbol)
		} else {
			mark(pos, price)
		}

	default:
		return model.Trade{}, fmt.Errorf("%w: side %q", ErrInvalidTrade, side)
	}

	trade := model.Trade{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		Timestamp: l.now(),
		Status:    model.StatusFilled,
	}
	l.state.Trades = append([]model.Trade{trade}, l.state.Trades...)

	if err := l.save(); err != nil {
		l.logger.Error("failed to save portfolio state", zap.Error(err))
	}
	if err := l.recorder.RecordTrade(&recorder.TradeEvent{Trade: trade, BalanceAfter: l.state.Balance}); err != nil {
		l.logger.Warn("failed to record trade", zap.String("trade_id", trade.ID), zap.Error(err))
	}
	l.logger.Info("trade filled",
		zap.String("symbol", symbol), zap.String("side", string(side)),
		zap.String("quantity", quantity.String()), zap.String("price", price.String()),
		zap.String("balance", l.state.Balance.StringFixed(2)))
	return trade, nil
}

// Revalue marks every position with a price in prices and recomputes its PnL.
// Positions without a price keep their last mark.
func (l *Ledger) Revalue(prices map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for sym, pos := range l.state.Positions {
		if p, ok := prices[sym]; ok && p > 0 {
			mark(pos, decimal.NewFromFloat(p))
		}
	}
}

func mark(pos *model.Position, price decimal.Decimal) {
	pos.CurrentPrice = price
	pos.PnL = price.Sub(pos.AvgCost).Mul(pos.Quantity)
	if pos.AvgCost.IsZero() {
		pos.PnLPercent = decimal.Zero
		return
	}
	pos.PnLPercent = price.Sub(pos.AvgCost).Div(pos.AvgCost).Mul(hundred)
}

// Snapshot returns a deep copy of the current state.
func (l *Ledger) Snapshot() model.PortfolioState {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := model.PortfolioState{
		Balance:   l.state.Balance,
		Positions: make(map[string]*model.Position, len(l.state.Positions)),
		Trades:    append([]model.Trade(nil), l.state.Trades...),
		UpdatedAt: l.state.UpdatedAt,
	}
	for k, p := range l.state.Positions {
		cp := *p
		out.Positions[k] = &cp
	}
	return out
}

// Balance returns the cash balance.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balance
}

// Position returns a copy of the open position in symbol.
func (l *Ledger) Position(symbol string) (model.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.state.Positions[symbol]
	if !ok {
		return model.Position{}, false
	}
	return *p, true
}

// Trades returns up to limit trades, most recent first. limit <= 0 returns all.
func (l *Ledger) Trades(limit int) []model.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.state.Trades)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]model.Trade(nil), l.state.Trades[:n]...)
}

// Persist saves the state and records a valuation snapshot.
func (l *Ledger) Persist() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.save(); err != nil {
		l.logger.Error("failed to save portfolio state", zap.Error(err))
	}
	snap := &recorder.PortfolioSnapshot{
		Timestamp: l.now(),
		Balance:   l.state.Balance,
		Equity:    l.state.Equity(),
		Positions: len(l.state.Positions),
		Trades:    len(l.state.Trades),
	}
	if err := l.recorder.RecordSnapshot(snap); err != nil {
		l.logger.Warn("failed to record portfolio snapshot", zap.Error(err))
	}
}

func (l *Ledger) save() error {
	if l.filePath == "" {
		return nil
	}
	return SaveState(l.filePath, l.state)
}
