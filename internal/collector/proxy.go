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

// ProxyFetcher queries a server-side quote proxy that accepts a symbol and an asset-class hint.
type ProxyFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *RateLimiter
}

// NewProxyFetcher creates a proxy fetcher with optional bearer auth.
func NewProxyFetcher(baseURL, apiKey string, client *http.Client, limiter *RateLimiter) *ProxyFetcher {
	return &ProxyFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  client,
		Limiter: limiter,
	}
}

func (f *ProxyFetcher) Name() string { return "proxy" }

func (f *ProxyFetcher) Supports(model.Instrument) bool { return f.BaseURL != "" }

func (f *ProxyFetcher) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	if err := f.Limiter.Allow(f.Name()); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/api/market-data?symbol=%s&type=%s",
		f.BaseURL, url.QueryEscape(inst.Symbol), url.QueryEscape(string(inst.Class)))

	header := http.Header{}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}

	var q model.Quote
	if err := getJSON(ctx, f.Client, u, header, &q); err != nil {
		return nil, upstreamError(f.Name(), err)
	}
	if q.Price <= 0 {
		return nil, upstreamError(f.Name(), fmt.Errorf("invalid price %v for %s", q.Price, inst.Symbol))
	}
	q.Symbol = inst.Symbol
	if q.Source == "" {
		q.Source = f.Name()
	}
	if q.Timestamp.IsZero() {
		q.Timestamp = time.Now()
	}
	return &q, nil
}
