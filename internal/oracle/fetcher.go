// Package oracle orchestrates fetching prices from upstream providers and
// turning them into margin-inclusive price records.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/provider"

	"go.uber.org/zap"
)

// FetchError is the overall fetch failure surfaced to the scheduler. It
// carries the underlying cause and whether that cause was a rate-limit
// signal, which is the only class that drives exponential backoff.
type FetchError struct {
	Cause       error
	RateLimited bool
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed: %v", e.Cause)
}

// Unwrap returns the underlying cause for use with errors.Is/As.
func (e *FetchError) Unwrap() error { return e.Cause }

// Fetcher tries providers in a fixed priority order and produces one
// normalized price mapping for a requested token set.
type Fetcher struct {
	providers []provider.Provider
	log       *zap.SugaredLogger
}

// NewFetcher creates a fetcher with the given provider priority order.
func NewFetcher(providers []provider.Provider, log *zap.SugaredLogger) *Fetcher {
	return &Fetcher{providers: providers, log: log}
}

// Fetch fetches quotes for the given canonical token identifiers, returning
// the normalized mapping and the name of the provider that produced it.
//
// Cascade policy: the primary falls through to the next provider only on a
// rate-limit signal; any other primary failure propagates immediately.
// Cascading fallback is reserved for capacity exhaustion, not generic
// errors. Secondary and later providers fall through on any failure.
func (f *Fetcher) Fetch(ctx context.Context, tokenIDs []string) (provider.Normalized, string, error) {
	if len(f.providers) == 0 {
		return nil, "", &FetchError{Cause: provider.ErrAllProvidersExhausted}
	}

	rateLimited := false
	var lastErr error
	for i, p := range f.providers {
		normalized, err := p.Fetch(ctx, tokenIDs)
		if err == nil {
			f.log.Infow("fetched prices", "provider", p.Name(), "tokens", len(normalized))
			return normalized, p.Name(), nil
		}

		if errors.Is(err, provider.ErrRateLimited) {
			rateLimited = true
			f.log.Warnw("provider rate limited", "provider", p.Name())
			lastErr = err
			continue
		}

		if i == 0 {
			return nil, "", &FetchError{Cause: err}
		}

		f.log.Warnw("provider failed", "provider", p.Name(), "error", err.Error())
		lastErr = err
	}

	cause := fmt.Errorf("%w: %v", provider.ErrAllProvidersExhausted, lastErr)
	return nil, "", &FetchError{Cause: cause, RateLimited: rateLimited}
}
