package portfolio

import (
	"errors"
	"path/filepath"
	"testing"

	"MarketWatch/internal/model"
	"MarketWatch/internal/recorder"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newLedger(t *testing.T, balance string) *Ledger {
	t.Helper()
	l, err := NewLedger("", d(balance), nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	return l
}

type captureRecorder struct {
	recorder.NoopRecorder
	trades    []recorder.TradeEvent
	snapshots int
}

func (c *captureRecorder) RecordTrade(evt *recorder.TradeEvent) error {
	c.trades = append(c.trades, *evt)
	return nil
}

func (c *captureRecorder) RecordSnapshot(*recorder.PortfolioSnapshot) error {
	c.snapshots++
	return nil
}

func TestBuyThenSellRoundTrip(t *testing.T) {
	l := newLedger(t, "100000")

	buy, err := l.ExecuteTrade("AAPL", model.SideBuy, d("10"), d("175.50"))
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if !l.Balance().Equal(d("98245.00")) {
		t.Errorf("balance after buy = %s, want 98245.00", l.Balance())
	}
	pos, ok := l.Position("AAPL")
	if !ok || !pos.Quantity.Equal(d("10")) || !pos.AvgCost.Equal(d("175.50")) {
		t.Fatalf("position = %+v", pos)
	}
	if buy.Status != model.StatusFilled || buy.ID == "" {
		t.Errorf("trade = %+v", buy)
	}

	if _, err := l.ExecuteTrade("AAPL", model.SideSell, d("10"), d("180")); err != nil {
		t.Fatalf("sell: %v", err)
	}
	if !l.Balance().Equal(d("100045.00")) {
		t.Errorf("balance after sell = %s, want 100045.00", l.Balance())
	}
	if _, ok := l.Position("AAPL"); ok {
		t.Error("position should be removed at zero quantity")
	}

	trades := l.Trades(0)
	if len(trades) != 2 || trades[0].Side != model.SideSell || trades[1].Side != model.SideBuy {
		t.Errorf("trade log should be most recent first: %+v", trades)
	}
}

func TestBuyRejectedOnInsufficientBalance(t *testing.T) {
	l := newLedger(t, "100")
	_, err := l.ExecuteTrade("AAPL", model.SideBuy, d("10"), d("175.50"))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if !l.Balance().Equal(d("100")) {
		t.Errorf("balance changed to %s", l.Balance())
	}
	if _, ok := l.Position("AAPL"); ok {
		t.Error("position created on rejected buy")
	}
	if len(l.Trades(0)) != 0 {
		t.Error("trade logged on rejected buy")
	}
}

func TestBuyExactBalance(t *testing.T) {
	l := newLedger(t, "1755")
	if _, err := l.ExecuteTrade("AAPL", model.SideBuy, d("10"), d("175.5")); err != nil {
		t.Fatalf("buy at exact balance: %v", err)
	}
	if !l.Balance().IsZero() {
		t.Errorf("balance = %s, want 0", l.Balance())
	}
}

func TestSellRejected(t *testing.T) {
	l := newLedger(t, "100000")
	if _, err := l.ExecuteTrade("AAPL", model.SideSell, d("1"), d("100")); !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("sell without position: err = %v", err)
	}
	if _, err := l.ExecuteTrade("AAPL", model.SideBuy, d("5"), d("100")); err != nil {
		t.Fatal(err)
	}
	if _, err := l.ExecuteTrade("AAPL", model.SideSell, d("6"), d("100")); !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("oversell: err = %v", err)
	}
	if pos, _ := l.Position("AAPL"); !pos.Quantity.Equal(d("5")) {
		t.Errorf("quantity changed to %s", pos.Quantity)
	}
	if !l.Balance().Equal(d("99500")) {
		t.Errorf("balance = %s", l.Balance())
	}
}

func TestInvalidTrade(t *testing.T) {
	l := newLedger(t, "1000")
	cases := []struct {
		name string
		side model.TradeSide
		qty  string
		px   string
	}{
		{"zero quantity", model.SideBuy, "0", "10"},
		{"negative price", model.SideBuy, "1", "-1"},
		{"unknown side", model.TradeSide("short"), "1", "10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := l.ExecuteTrade("AAPL", tc.side, d(tc.qty), d(tc.px)); !errors.Is(err, ErrInvalidTrade) {
				t.Errorf("err = %v, want ErrInvalidTrade", err)
			}
		})
	}
	if !l.Balance().Equal(d("1000")) {
		t.Errorf("balance changed to %s", l.Balance())
	}
}

func TestWeightedAverageCost(t *testing.T) {
	l := newLedger(t, "100000")
	mustTrade(t, l, model.SideBuy, "10", "100")
	mustTrade(t, l, model.SideBuy, "30", "120")
	pos, _ := l.Position("AAPL")
	if !pos.AvgCost.Equal(d("115")) || !pos.Quantity.Equal(d("40")) {
		t.Errorf("avg cost = %s qty = %s, want 115 / 40", pos.AvgCost, pos.Quantity)
	}

	// partial sell keeps the average cost
	mustTrade(t, l, model.SideSell, "15", "130")
	pos, _ = l.Position("AAPL")
	if !pos.AvgCost.Equal(d("115")) || !pos.Quantity.Equal(d("25")) {
		t.Errorf("after sell avg = %s qty = %s", pos.AvgCost, pos.Quantity)
	}
}

func TestRevalue(t *testing.T) {
	l := newLedger(t, "100000")
	mustTrade(t, l, model.SideBuy, "10", "100")
	mustTrade(t, l, model.SideBuy, "2", "50")
	l.Revalue(map[string]float64{"AAPL": 150})

	pos, _ := l.Position("AAPL")
	// avg = (1000 + 100) / 12
	avg := d("1100").Div(d("12"))
	if !pos.AvgCost.Equal(avg) {
		t.Errorf("avg = %s, want %s", pos.AvgCost, avg)
	}
	if !pos.CurrentPrice.Equal(d("150")) {
		t.Errorf("current price = %s", pos.CurrentPrice)
	}
	wantPnL := d("150").Sub(avg).Mul(d("12"))
	if !pos.PnL.Equal(wantPnL) {
		t.Errorf("pnl = %s, want %s", pos.PnL, wantPnL)
	}

	l.Revalue(map[string]float64{"MSFT": 300})
	if pos2, _ := l.Position("AAPL"); !pos2.CurrentPrice.Equal(d("150")) {
		t.Error("positions without a price must keep their mark")
	}
}

func TestSummarize(t *testing.T) {
	l := newLedger(t, "10000")
	mustTrade(t, l, model.SideBuy, "10", "100")
	l.Revalue(map[string]float64{"AAPL": 110})

	s := Summarize(l.Snapshot())
	if !s.Balance.Equal(d("9000")) || !s.PositionsValue.Equal(d("1100")) || !s.Equity.Equal(d("10100")) {
		t.Errorf("summary = %+v", s)
	}
	if !s.TotalPnL.Equal(d("100")) || !s.TotalPnLPercent.Equal(d("10")) {
		t.Errorf("pnl = %s (%s%%)", s.TotalPnL, s.TotalPnLPercent)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	l := newLedger(t, "10000")
	mustTrade(t, l, model.SideBuy, "1", "100")
	snap := l.Snapshot()
	snap.Positions["AAPL"].Quantity = d("999")
	if pos, _ := l.Position("AAPL"); !pos.Quantity.Equal(d("1")) {
		t.Error("snapshot mutation leaked into ledger")
	}
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "portfolio.json")
	rec := &captureRecorder{}
	l, err := NewLedger(path, d("5000"), rec, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	mustTrade(t, l, model.SideBuy, "3", "100")
	l.Persist()

	if len(rec.trades) != 1 || !rec.trades[0].BalanceAfter.Equal(d("4700")) {
		t.Errorf("recorded trades = %+v", rec.trades)
	}
	if rec.snapshots != 1 {
		t.Errorf("snapshots = %d, want 1", rec.snapshots)
	}

	// reload ignores the starting balance
	reloaded, err := NewLedger(path, d("1"), nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Balance().Equal(d("4700")) {
		t.Errorf("reloaded balance = %s", reloaded.Balance())
	}
	if pos, ok := reloaded.Position("AAPL"); !ok || !pos.Quantity.Equal(d("3")) {
		t.Errorf("reloaded position = %+v", pos)
	}
	if len(reloaded.Trades(0)) != 1 {
		t.Error("trade log not persisted")
	}
}

func mustTrade(t *testing.T, l *Ledger, side model.TradeSide, qty, px string) {
	t.Helper()
	if _, err := l.ExecuteTrade("AAPL", side, d(qty), d(px)); err != nil {
		t.Fatalf("%s %s @ %s: %v", side, qty, px, err)
	}
}
