package dashboard

import (
	"context"
	"fmt"
	"strings"

	"MarketWatch/internal/notifier"
)

// HandleCommand answers a chat command.
func (d *Dashboard) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.Help
	}
	// "/quote@MyBot AAPL" addresses the bot in group chats
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch name {
	case "/portfolio":
		return notifier.FormatPortfolio(d.Portfolio())
	case "/quote":
		if len(fields) < 2 {
			return "Usage: /quote SYMBOL"
		}
		symbol := strings.ToUpper(fields[1])
		a, err := d.Track(ctx, symbol)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatQuote(a)
	case "/status":
		st := d.Status()
		return notifier.FormatStatus(st.Status, st.Source)
	case "/refresh":
		if err := d.ManualRefresh(ctx); err != nil {
			return fmt.Sprintf("❌ refresh failed: %v", err)
		}
		st := d.Status()
		return "🔄 Refreshed\n\n" + notifier.FormatStatus(st.Status, st.Source)
	default:
		return notifier.Help
	}
}
