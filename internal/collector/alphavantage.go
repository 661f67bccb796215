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

// AlphaVantageFetcher prices stocks through the GLOBAL_QUOTE function.
type AlphaVantageFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *RateLimiter
}

// NewAlphaVantageFetcher creates an Alpha Vantage fetcher.
func NewAlphaVantageFetcher(baseURL, apiKey string, client *http.Client, limiter *RateLimiter) *AlphaVantageFetcher {
	return &AlphaVantageFetcher{BaseURL: strings.TrimRight(baseURL, "/"), APIKey: apiKey, Client: client, Limiter: limiter}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

func (f *AlphaVantageFetcher) Supports(inst model.Instrument) bool {
	return inst.Class == model.ClassStock && f.APIKey != ""
}

const globalQuote = `$["Global Quote"]`

func (f *AlphaVantageFetcher) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	if err := f.Limiter.Allow(f.Name()); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		f.BaseURL, url.QueryEscape(inst.Symbol), url.QueryEscape(f.APIKey))

	var doc any
	if err := getJSON(ctx, f.Client, u, nil, &doc); err != nil {
		return nil, upstreamError(f.Name(), err)
	}
	if m, ok := doc.(map[string]any); ok {
		if note, ok := m["Note"].(string); ok {
			return nil, fmt.Errorf("%s: %w: %s", f.Name(), ErrRateLimitExceeded, note)
		}
	}

	price, err := pathFloat(doc, globalQuote+`["05. price"]`)
	if err != nil || price <= 0 {
		return nil, upstreamError(f.Name(), fmt.Errorf("no global quote for %s: %v", inst.Symbol, err))
	}
	return &model.Quote{
		Symbol:        inst.Symbol,
		Price:         price,
		Change:        optionalFloat(doc, globalQuote+`["09. change"]`),
		ChangePercent: optionalFloat(doc, globalQuote+`["10. change percent"]`),
		Volume:        optionalFloat(doc, globalQuote+`["06. volume"]`),
		High:          optionalFloat(doc, globalQuote+`["03. high"]`),
		Low:           optionalFloat(doc, globalQuote+`["04. low"]`),
		Open:          optionalFloat(doc, globalQuote+`["02. open"]`),
		Timestamp:     time.Now(),
		Source:        f.Name(),
	}, nil
}
