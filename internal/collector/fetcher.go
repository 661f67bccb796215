package collector

import (
	"context"
	"errors"
	"fmt"

	"MarketWatch/internal/model"
)

var (
	// ErrRateLimitExceeded means the provider's quota for the current window is used up.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrUpstreamFetchFailed wraps every network, status or parse failure from a provider.
	ErrUpstreamFetchFailed = errors.New("upstream fetch failed")
	// ErrUnsupported means the provider does not cover the instrument.
	ErrUnsupported = errors.New("instrument not supported by provider")
)

// Fetcher defines the interface for fetching quotes from one upstream.
type Fetcher interface {
	Name() string
	Supports(inst model.Instrument) bool
	FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error)
}

func upstreamError(name string, err error) error {
	return fmt.Errorf("%s: %w: %w", name, ErrUpstreamFetchFailed, err)
}
