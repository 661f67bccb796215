package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"MarketWatch/internal/model"
)

// ExchangeRateFetcher prices forex pairs from a latest-rates table keyed by base currency.
type ExchangeRateFetcher struct {
	BaseURL string
	Client  *http.Client
	Limiter *RateLimiter
}

// NewExchangeRateFetcher creates an exchange-rate fetcher.
func NewExchangeRateFetcher(baseURL string, client *http.Client, limiter *RateLimiter) *ExchangeRateFetcher {
	return &ExchangeRateFetcher{BaseURL: strings.TrimRight(baseURL, "/"), Client: client, Limiter: limiter}
}

func (f *ExchangeRateFetcher) Name() string { return "exchangerate" }

func (f *ExchangeRateFetcher) Supports(inst model.Instrument) bool {
	_, _, ok := splitPair(inst.Symbol)
	return inst.Class == model.ClassForex && ok
}

// splitPair turns "EURUSD=X" or "EURUSD" into ("EUR", "USD").
func splitPair(symbol string) (base, quote string, ok bool) {
	pair := strings.TrimSuffix(strings.ToUpper(symbol), "=X")
	if len(pair) != 6 {
		return "", "", false
	}
	return pair[:3], pair[3:], true
}

func (f *ExchangeRateFetcher) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	base, target, ok := splitPair(inst.Symbol)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", f.Name(), inst.Symbol, ErrUnsupported)
	}
	if err := f.Limiter.Allow(f.Name()); err != nil {
		return nil, err
	}

	var doc any
	if err := getJSON(ctx, f.Client, fmt.Sprintf("%s/v4/latest/%s", f.BaseURL, base), nil, &doc); err != nil {
		return nil, upstreamError(f.Name(), err)
	}
	rate, err := pathFloat(doc, "$.rates."+target)
	if err != nil || rate <= 0 {
		return nil, upstreamError(f.Name(), fmt.Errorf("no %s rate for %s: %v", target, base, err))
	}
	return &model.Quote{
		Symbol:    inst.Symbol,
		Price:     rate,
		Timestamp: time.Now(),
		Source:    f.Name(),
	}, nil
}
