package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"MarketWatch/internal/dashboard"
	"MarketWatch/internal/model"
	"MarketWatch/internal/notifier"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// withApp runs fn against a one-shot app without the live stream.
func withApp(ctx context.Context, fn func(context.Context, *app) error) subcommands.ExitStatus {
	a, err := newApp(false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()
	if err := fn(ctx, a); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func symbolArgs(f *flag.FlagSet) []string {
	out := make([]string, 0, f.NArg())
	for _, s := range f.Args() {
		out = append(out, strings.ToUpper(strings.TrimSpace(s)))
	}
	return out
}

type quoteCmd struct{}

func (*quoteCmd) Name() string             { return "quote" }
func (*quoteCmd) Synopsis() string         { return "print the current quote of one or more symbols" }
func (*quoteCmd) Usage() string            { return "marketwatch quote <symbol>...\n" }
func (*quoteCmd) SetFlags(_ *flag.FlagSet) {}

func (q *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := symbolArgs(f)
	if len(symbols) == 0 {
		fmt.Fprint(os.Stderr, q.Usage())
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(ctx context.Context, a *app) error {
		for _, s := range symbols {
			asset, err := a.dash.Track(ctx, s)
			if err != nil {
				return err
			}
			fmt.Println(notifier.FormatQuote(asset))
		}
		return nil
	})
}

type candlesCmd struct {
	timeframe string
}

func (*candlesCmd) Name() string     { return "candles" }
func (*candlesCmd) Synopsis() string { return "print the candle history of a symbol" }
func (*candlesCmd) Usage() string {
	return `marketwatch candles [-t <timeframe>] <symbol>

  Timeframes: 1D, 1W, 1M, 3M, 1Y.
`
}

func (c *candlesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.timeframe, "t", "1M", "Candle timeframe.")
}

func (c *candlesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := symbolArgs(f)
	if len(symbols) != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(ctx context.Context, a *app) error {
		asset, err := a.dash.Track(ctx, symbols[0])
		if err != nil {
			return err
		}
		bars, err := a.dash.Candles(asset.Symbol, strings.ToUpper(c.timeframe))
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "time\topen\thigh\tlow\tclose\tvolume\t")
		for _, b := range bars {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.0f\t\n",
				b.Time.Format("2006-01-02 15:04"),
				notifier.FormatPrice(asset.Class, b.Open),
				notifier.FormatPrice(asset.Class, b.High),
				notifier.FormatPrice(asset.Class, b.Low),
				notifier.FormatPrice(asset.Class, b.Close),
				b.Volume)
		}
		return w.Flush()
	})
}

type compareCmd struct {
	timeframe string
	normalize bool
}

func (*compareCmd) Name() string     { return "compare" }
func (*compareCmd) Synopsis() string { return "compare the performance of up to eight symbols" }
func (*compareCmd) Usage() string {
	return `marketwatch compare [-t <timeframe>] [-normalize] <symbol>...

  Prints each series' first and last value and its change over the timeframe.
`
}

func (c *compareCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.timeframe, "t", "1M", "Comparison timeframe (1D, 1W, 1M, 3M, 1Y).")
	f.BoolVar(&c.normalize, "normalize", false, "Show percentage change from the first point.")
}

func (c *compareCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := symbolArgs(f)
	if len(symbols) == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(ctx context.Context, a *app) error {
		for _, s := range symbols {
			if err := a.dash.AddComparison(ctx, s); err != nil {
				return fmt.Errorf("%s: %w", s, err)
			}
		}
		series, err := a.dash.Compare(strings.ToUpper(c.timeframe), c.normalize)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "symbol\tcolor\tfirst\tlast\tchange")
		for _, s := range series {
			if len(s.Points) == 0 {
				continue
			}
			first, last := s.Points[0].Price, s.Points[len(s.Points)-1].Price
			change := "n/a"
			if first != 0 {
				change = fmt.Sprintf("%+.2f%%", (last-first)/first*100)
			}
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%s\n", s.Symbol, s.Color, first, last, change)
		}
		return w.Flush()
	})
}

type tradeCmd struct {
	side     string
	quantity string
	price    string
}

func (*tradeCmd) Name() string     { return "trade" }
func (*tradeCmd) Synopsis() string { return "buy or sell a symbol in the paper portfolio" }
func (*tradeCmd) Usage() string {
	return `marketwatch trade -side <buy|sell> -q <quantity> [-price <price>] <symbol>

  Without -price the order fills at the current market price.
`
}

func (t *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&t.side, "side", "buy", "Trade side: buy or sell.")
	f.StringVar(&t.quantity, "q", "", "Quantity to trade.")
	f.StringVar(&t.price, "price", "", "Limit price. Defaults to the market price.")
}

func (t *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := symbolArgs(f)
	if len(symbols) != 1 || t.quantity == "" {
		fmt.Fprint(os.Stderr, t.Usage())
		return subcommands.ExitUsageError
	}
	qty, err := decimal.NewFromString(t.quantity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid quantity %q: %v\n", t.quantity, err)
		return subcommands.ExitUsageError
	}
	price := decimal.Zero
	if t.price != "" {
		if price, err = decimal.NewFromString(t.price); err != nil {
			fmt.Fprintf(os.Stderr, "invalid price %q: %v\n", t.price, err)
			return subcommands.ExitUsageError
		}
	}
	return withApp(ctx, func(ctx context.Context, a *app) error {
		trade, err := a.dash.ExecuteTrade(ctx, dashboard.TradeRequest{
			Symbol:   symbols[0],
			Side:     model.TradeSide(strings.ToLower(t.side)),
			Quantity: qty,
			Price:    price,
		})
		if err != nil {
			return err
		}
		fmt.Println(notifier.FormatTrade(trade))
		fmt.Println("Balance:", notifier.FormatMoney(a.ledger.Balance(), notifier.Currency))
		return nil
	})
}

type portfolioCmd struct {
	trades int
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "show the paper portfolio valued at current prices" }
func (*portfolioCmd) Usage() string {
	return "marketwatch portfolio [-trades <n>]\n"
}

func (p *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&p.trades, "trades", 5, "Number of recent trades to list.")
}

func (p *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctx context.Context, a *app) error {
		prices := make(map[string]float64)
		for symbol := range a.ledger.Snapshot().Positions {
			asset, err := a.dash.Track(ctx, symbol)
			if err != nil {
				return err
			}
			prices[symbol] = asset.Price
		}
		a.ledger.Revalue(prices)

		fmt.Println(notifier.FormatPortfolio(a.dash.Portfolio()))
		for _, t := range a.dash.Trades(p.trades) {
			fmt.Println(notifier.FormatTrade(t))
		}
		return nil
	})
}
