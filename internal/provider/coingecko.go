package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/models"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// coingeckoContracts maps canonical identifiers that CoinGecko's simple/price
// endpoint does not resolve by id to their contract-address lookup. Tokens in
// this map get exactly one supplementary token_price call if the primary
// lookup misses them.
var coingeckoContracts = map[string]struct {
	Platform string
	Address  string
}{
	"cngn": {Platform: "ethereum", Address: "0x17c4f335087da29f3e6df1532e6fd631a6b493a5"},
}

// CoinGeckoProvider is the primary price source. It is the only provider
// with a direct NGN quote, so no exchange-rate resolution is needed.
type CoinGeckoProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	apiKey     string
}

// NewCoinGeckoProvider creates a new CoinGecko price provider.
func NewCoinGeckoProvider(httpClient *http.Client, apiKey string) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		httpClient: httpClient,
		baseURL:    coingeckoBaseURL,
		apiKey:     apiKey,
	}
}

// Name returns the provider identifier.
func (p *CoinGeckoProvider) Name() string { return models.SourceCoinGecko }

// Fetch fetches USD and NGN quotes keyed by canonical id. Tokens the
// primary lookup misses get one supplementary contract-address lookup if
// a mapping exists; a failed supplementary lookup drops that token only.
func (p *CoinGeckoProvider) Fetch(ctx context.Context, tokenIDs []string) (Normalized, error) {
	if len(tokenIDs) == 0 {
		return nil, ErrNoValidTokens
	}

	query := url.Values{}
	query.Set("ids", strings.Join(tokenIDs, ","))
	query.Set("vs_currencies", "usd,ngn")

	body, err := p.get(ctx, p.baseURL+"/simple/price?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding coingecko response: %v", ErrMalformedResponse, err)
	}

	normalized := make(Normalized, len(raw))
	for _, id := range tokenIDs {
		prices, ok := raw[id]
		if !ok {
			if quote, found := p.fetchByContract(ctx, id); found {
				normalized[id] = quote
			}
			continue
		}
		normalized[id] = quoteFromPrices(prices)
	}

	if len(normalized) == 0 {
		return nil, fmt.Errorf("%w: coingecko returned no usable prices", ErrNoValidTokens)
	}
	return normalized, nil
}

// fetchByContract performs the single supplementary lookup for a token
// CoinGecko identifies only by contract address.
func (p *CoinGeckoProvider) fetchByContract(ctx context.Context, tokenID string) (Quote, bool) {
	contract, ok := coingeckoContracts[tokenID]
	if !ok {
		return Quote{}, false
	}

	query := url.Values{}
	query.Set("contract_addresses", contract.Address)
	query.Set("vs_currencies", "usd,ngn")

	body, err := p.get(ctx, p.baseURL+"/simple/token_price/"+contract.Platform+"?"+query.Encode())
	if err != nil {
		return Quote{}, false
	}

	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return Quote{}, false
	}

	prices, ok := raw[strings.ToLower(contract.Address)]
	if !ok {
		return Quote{}, false
	}
	return quoteFromPrices(prices), true
}

func (p *CoinGeckoProvider) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building coingecko request: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: coingecko request: %v", ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: coingecko returned 429", ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: coingecko returned status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	return readAll(resp)
}

func quoteFromPrices(prices map[string]float64) Quote {
	var q Quote
	if usd, ok := prices["usd"]; ok {
		q.USD = Float(usd)
	}
	if ngn, ok := prices["ngn"]; ok {
		q.NGN = Float(ngn)
	}
	return q
}
