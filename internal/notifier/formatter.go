package notifier

import (
	"fmt"
	"strings"
	"time"

	"MarketWatch/internal/generator"
	"MarketWatch/internal/model"
	"MarketWatch/internal/portfolio"
	"MarketWatch/internal/scheduler"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency used for ledger amounts.
const Currency = money.USD

// FormatMoney renders amount in currency with grouping and the currency's minor units.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), currency).Display()
}

// FormatPrice renders a quote price with the precision of its asset class.
func FormatPrice(class model.AssetClass, price float64) string {
	return fmt.Sprintf("%.*f", generator.Decimals(class, price), price)
}

func arrow(change float64) string {
	switch {
	case change > 0:
		return "🟢"
	case change < 0:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatQuote formats a live asset.
func FormatQuote(a model.Asset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b> %s\n", arrow(a.ChangePercent), a.Symbol, a.Name)
	fmt.Fprintf(&b, "Price: %s %s\n", FormatPrice(a.Class, a.Price), a.Currency)
	fmt.Fprintf(&b, "Change: %s (%+.2f%%)\n", FormatPrice(a.Class, a.Change), a.ChangePercent)
	if a.High24h > 0 && a.Low24h > 0 {
		fmt.Fprintf(&b, "Range: %s - %s\n", FormatPrice(a.Class, a.Low24h), FormatPrice(a.Class, a.High24h))
	}
	if a.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", a.Source)
	}
	return b.String()
}

// FormatPortfolio formats a portfolio valuation.
func FormatPortfolio(s portfolio.Summary) string {
	var b strings.Builder
	b.WriteString("💼 <b>Portfolio</b>\n\n")
	fmt.Fprintf(&b, "Cash: %s\n", FormatMoney(s.Balance, Currency))
	fmt.Fprintf(&b, "Positions: %s\n", FormatMoney(s.PositionsValue, Currency))
	fmt.Fprintf(&b, "Equity: %s\n", FormatMoney(s.Equity, Currency))
	fmt.Fprintf(&b, "PnL: %s (%s%%)\n", FormatMoney(s.TotalPnL, Currency), s.TotalPnLPercent.StringFixed(2))
	if len(s.Positions) == 0 {
		b.WriteString("\nNo open positions")
		return b.String()
	}
	b.WriteString("\n")
	for _, p := range s.Positions {
		fmt.Fprintf(&b, "%s <b>%s</b> %s @ %s → %s (%s%%)\n",
			arrow(p.PnL.InexactFloat64()), p.Symbol, p.Quantity.String(),
			FormatMoney(p.AvgCost, Currency), FormatMoney(p.CurrentPrice, Currency),
			p.PnLPercent.StringFixed(2))
	}
	return b.String()
}

// FormatTrade formats a filled trade.
func FormatTrade(t model.Trade) string {
	verb := "Bought"
	if t.Side == model.SideSell {
		verb = "Sold"
	}
	return fmt.Sprintf("✅ %s %s <b>%s</b> @ %s (total %s)",
		verb, t.Quantity.String(), t.Symbol, FormatMoney(t.Price, Currency), FormatMoney(t.Notional(), Currency))
}

// FormatStatus formats the scheduler status and data source label.
func FormatStatus(st scheduler.Status, source string) string {
	var b strings.Builder
	b.WriteString("📡 <b>Market data status</b>\n\n")
	fmt.Fprintf(&b, "Polling: %s", st.State)
	if st.Halted {
		b.WriteString(" (halted)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Source: %s\n", source)
	fmt.Fprintf(&b, "Retries: %d/%d\n", st.RetryCount, st.MaxRetries)
	if !st.LastUpdate.IsZero() {
		fmt.Fprintf(&b, "Last update: %s\n", st.LastUpdate.Format(time.DateTime))
	}
	if st.LastError != "" {
		fmt.Fprintf(&b, "Last error: %s\n", st.LastError)
	}
	return b.String()
}

// FormatHaltAlert formats the message sent when polling halts.
func FormatHaltAlert(err error, retries int) string {
	return fmt.Sprintf("⚠️ <b>Market data polling halted</b>\n\n%d consecutive refreshes failed.\nLast error: %v\nSend /refresh to resume.", retries, err)
}

// Help lists the supported commands.
const Help = "Commands:\n• /portfolio\n• /quote SYMBOL\n• /status\n• /refresh"
