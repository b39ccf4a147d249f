package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/logger"
)

const (
	erAPIPrimaryURL   = "https://open.er-api.com/v6/latest/USD"
	erAPISecondaryURL = "https://api.exchangerate-api.com/v4/latest/USD"

	// rateTTL keeps one forex call per fetch cycle rather than one per token.
	rateTTL = 10 * time.Minute
)

// forexResponse covers both rate sources; each returns {"rates": {"NGN": n}}.
type forexResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// ForexResolver resolves the USD to NGN multiplier. It tries a
// high-confidence source first, a general-purpose source second, and a
// configured constant last, so resolution never fails outright.
type ForexResolver struct {
	httpClient   *http.Client
	primaryURL   string // overridable for tests
	secondaryURL string // overridable for tests
	fallbackRate float64

	mu        sync.Mutex
	rate      float64
	fetchedAt time.Time
}

// NewForexResolver creates a resolver with the given constant fallback rate.
func NewForexResolver(httpClient *http.Client, fallbackRate float64) *ForexResolver {
	return &ForexResolver{
		httpClient:   httpClient,
		primaryURL:   erAPIPrimaryURL,
		secondaryURL: erAPISecondaryURL,
		fallbackRate: fallbackRate,
	}
}

var _ RateSource = (*ForexResolver)(nil)

// USDToNGN returns the current USD to NGN multiplier. A recently fetched
// rate is reused; otherwise sources are tried in order and the configured
// fallback is returned when both fail.
func (r *ForexResolver) USDToNGN(ctx context.Context) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rate > 0 && time.Since(r.fetchedAt) < rateTTL {
		return r.rate
	}

	for _, source := range []string{r.primaryURL, r.secondaryURL} {
		rate, err := r.fetchRate(ctx, source)
		if err != nil {
			logger.Get().Warnw("forex source failed", "source", source, "error", err.Error())
			continue
		}
		r.rate = rate
		r.fetchedAt = time.Now()
		return rate
	}

	logger.Get().Warnw("all forex sources failed, using configured fallback rate",
		"fallback_rate", r.fallbackRate)
	return r.fallbackRate
}

func (r *ForexResolver) fetchRate(ctx context.Context, rawURL string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("building forex request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("forex request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("forex request: unexpected status %d", resp.StatusCode)
	}

	var decoded forexResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decoding forex response: %w", err)
	}

	rate, ok := decoded.Rates["NGN"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("invalid NGN rate in forex response: %f", rate)
	}
	return rate, nil
}
