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

// CoinGeckoFetcher prices crypto instruments that carry a CoinGecko id.
type CoinGeckoFetcher struct {
	BaseURL string
	Client  *http.Client
	Limiter *RateLimiter
}

// NewCoinGeckoFetcher creates a CoinGecko fetcher.
func NewCoinGeckoFetcher(baseURL string, client *http.Client, limiter *RateLimiter) *CoinGeckoFetcher {
	return &CoinGeckoFetcher{BaseURL: strings.TrimRight(baseURL, "/"), Client: client, Limiter: limiter}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

func (f *CoinGeckoFetcher) Supports(inst model.Instrument) bool {
	return inst.Class == model.ClassCrypto && inst.CoinGeckoID != ""
}

func (f *CoinGeckoFetcher) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	if !f.Supports(inst) {
		return nil, fmt.Errorf("%s %s: %w", f.Name(), inst.Symbol, ErrUnsupported)
	}
	if err := f.Limiter.Allow(f.Name()); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true&include_24hr_vol=true&include_market_cap=true",
		f.BaseURL, url.QueryEscape(inst.CoinGeckoID))

	var doc any
	if err := getJSON(ctx, f.Client, u, nil, &doc); err != nil {
		return nil, upstreamError(f.Name(), err)
	}

	root := fmt.Sprintf(`$["%s"]`, inst.CoinGeckoID)
	price, err := pathFloat(doc, root+".usd")
	if err != nil || price <= 0 {
		return nil, upstreamError(f.Name(), fmt.Errorf("no usd price for %s: %v", inst.CoinGeckoID, err))
	}
	pct := optionalFloat(doc, root+".usd_24h_change")

	q := &model.Quote{
		Symbol:        inst.Symbol,
		Price:         price,
		ChangePercent: pct,
		Volume:        optionalFloat(doc, root+".usd_24h_vol"),
		MarketCap:     optionalFloat(doc, root+".usd_market_cap"),
		Timestamp:     time.Now(),
		Source:        f.Name(),
	}
	if pct > -100 {
		q.Change = price - price/(1+pct/100)
	}
	return q, nil
}
