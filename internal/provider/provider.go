// Package provider contains one adapter per upstream price source. Each
// adapter owns its provider's token vocabulary and response shape and
// normalizes both into the canonical token -> quote mapping.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Quote is a normalized price pair for one token. Either side may be absent:
// a provider can supply only USD, only NGN, or both.
type Quote struct {
	USD *float64
	NGN *float64
}

// Normalized maps canonical token identifiers to quotes.
type Normalized map[string]Quote

// Provider fetches current prices for a set of canonical token identifiers.
// Tokens absent from the provider's vocabulary are silently dropped, never
// errored; an implementation translates its own response shape so callers
// never see provider-specific structure.
type Provider interface {
	// Name returns the provider identifier used in price records and logs.
	Name() string

	// Fetch fetches quotes for the given canonical token identifiers.
	Fetch(ctx context.Context, tokenIDs []string) (Normalized, error)
}

// RateSource supplies a USD to NGN multiplier for providers that have no
// direct NGN quote. Implementations never fail; a configured constant is
// the last resort.
type RateSource interface {
	USDToNGN(ctx context.Context) float64
}

// Failure classification for provider errors. ErrRateLimited is the only
// class that drives exponential backoff; ErrMalformedResponse is treated
// like ErrProviderUnavailable for retry purposes.
var (
	ErrProviderUnavailable   = errors.New("provider unavailable")
	ErrRateLimited           = errors.New("provider rate limited")
	ErrMalformedResponse     = errors.New("malformed provider response")
	ErrNoValidTokens         = errors.New("no requested tokens in provider vocabulary")
	ErrAllProvidersExhausted = errors.New("all providers exhausted")
)

// Float returns a pointer to v. Quote fields are nullable by design.
func Float(v float64) *float64 { return &v }

// maxResponseBytes bounds upstream response bodies; provider payloads for a
// tracked token set are a few kilobytes at most.
const maxResponseBytes = 1 << 20

func readAll(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrProviderUnavailable, err)
	}
	return body, nil
}
