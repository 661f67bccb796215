package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MarketWatch/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	Limiter   *RateLimiter
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL string, client *http.Client, limiter *RateLimiter) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
		Limiter: limiter,
		SymbolMap: map[string]string{
			"SPX":    "^GSPC",
			"SPX500": "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// Supports covers everything Yahoo lists under a ticker; bond yields use other symbols there.
func (f *YahooFetcher) Supports(inst model.Instrument) bool {
	return inst.Class != model.ClassBond
}

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice   float64 `json:"regularMarketPrice"`
				ChartPreviousClose   float64 `json:"chartPreviousClose"`
				RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
				RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
				RegularMarketVolume  float64 `json:"regularMarketVolume"`
				RegularMarketTime    int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func lastNonZero(vals []interface{}) float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if f := toFloat(vals[i]); f != 0 {
			return f
		}
	}
	return 0
}

func (f *YahooFetcher) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	if err := f.Limiter.Allow(f.Name()); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d",
		f.BaseURL, url.PathEscape(f.yahooSymbol(inst.Symbol)))

	header := http.Header{}
	header.Set("User-Agent", "Mozilla/5.0")

	var chart yahooChart
	if err := getJSON(ctx, f.Client, u, header, &chart); err != nil {
		return nil, upstreamError(f.Name(), err)
	}
	if chart.Chart.Error != nil {
		return nil, upstreamError(f.Name(), fmt.Errorf("api error: %s", chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 {
		return nil, upstreamError(f.Name(), fmt.Errorf("no data returned for %s", inst.Symbol))
	}

	res := chart.Chart.Result[0]
	meta := res.Meta
	price := meta.RegularMarketPrice
	var open float64
	if len(res.Indicators.Quote) > 0 {
		q := res.Indicators.Quote[0]
		if price == 0 {
			price = lastNonZero(q.Close)
		}
		open = lastNonZero(q.Open)
	}
	if price <= 0 {
		return nil, upstreamError(f.Name(), fmt.Errorf("no price for %s", inst.Symbol))
	}

	quote := &model.Quote{
		Symbol:    inst.Symbol,
		Price:     price,
		Volume:    meta.RegularMarketVolume,
		High:      meta.RegularMarketDayHigh,
		Low:       meta.RegularMarketDayLow,
		Open:      open,
		Timestamp: time.Now(),
		Source:    f.Name(),
	}
	if meta.RegularMarketTime > 0 {
		quote.Timestamp = time.Unix(meta.RegularMarketTime, 0)
	}
	if prev := meta.ChartPreviousClose; prev > 0 {
		quote.Change = price - prev
		quote.ChangePercent = quote.Change / prev * 100
	}
	return quote, nil
}
