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

const cmcBaseURL = "https://pro-api.coinmarketcap.com"

// cmcSymbols maps canonical identifiers to CoinMarketCap ticker symbols.
// Tokens without an entry are dropped from the request, not errored.
var cmcSymbols = map[string]string{
	"bitcoin":     "BTC",
	"ethereum":    "ETH",
	"tether":      "USDT",
	"binancecoin": "BNB",
	"solana":      "SOL",
	"usd-coin":    "USDC",
	"ripple":      "XRP",
	"cardano":     "ADA",
	"dogecoin":    "DOGE",
	"tron":        "TRX",
}

// cmcQuoteResponse is CoinMarketCap's keyed-object response shape: data is
// keyed by symbol, each entry an array of listings.
type cmcQuoteResponse struct {
	Data map[string][]struct {
		Quote map[string]struct {
			Price float64 `json:"price"`
		} `json:"quote"`
	} `json:"data"`
}

// CoinMarketCapProvider is the secondary price source. CoinMarketCap quotes
// USD only, so NGN is derived through the exchange-rate resolver.
type CoinMarketCapProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	apiKey     string
	rates      RateSource
}

// NewCoinMarketCapProvider creates a new CoinMarketCap price provider.
func NewCoinMarketCapProvider(httpClient *http.Client, apiKey string, rates RateSource) *CoinMarketCapProvider {
	return &CoinMarketCapProvider{
		httpClient: httpClient,
		baseURL:    cmcBaseURL,
		apiKey:     apiKey,
		rates:      rates,
	}
}

// Name returns the provider identifier.
func (p *CoinMarketCapProvider) Name() string { return models.SourceCoinMarketCap }

// Fetch fetches USD quotes by symbol and derives NGN via the rate resolver.
func (p *CoinMarketCapProvider) Fetch(ctx context.Context, tokenIDs []string) (Normalized, error) {
	symbols := make([]string, 0, len(tokenIDs))
	symbolToID := make(map[string]string, len(tokenIDs))
	for _, id := range tokenIDs {
		symbol, ok := cmcSymbols[id]
		if !ok {
			continue
		}
		symbols = append(symbols, symbol)
		symbolToID[symbol] = id
	}
	if len(symbols) == 0 {
		return nil, ErrNoValidTokens
	}

	query := url.Values{}
	query.Set("symbol", strings.Join(symbols, ","))
	query.Set("convert", "USD")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/v2/cryptocurrency/quotes/latest?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building coinmarketcap request: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: coinmarketcap request: %v", ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: coinmarketcap returned 429", ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: coinmarketcap returned status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	body, err := readAll(resp)
	if err != nil {
		return nil, err
	}

	var decoded cmcQuoteResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding coinmarketcap response: %v", ErrMalformedResponse, err)
	}

	rate := p.rates.USDToNGN(ctx)
	normalized := make(Normalized, len(decoded.Data))
	for symbol, listings := range decoded.Data {
		id, ok := symbolToID[symbol]
		if !ok || len(listings) == 0 {
			continue
		}
		usdQuote, ok := listings[0].Quote["USD"]
		if !ok || usdQuote.Price <= 0 {
			continue
		}
		normalized[id] = Quote{
			USD: Float(usdQuote.Price),
			NGN: Float(usdQuote.Price * rate),
		}
	}

	if len(normalized) == 0 {
		return nil, fmt.Errorf("%w: coinmarketcap returned no usable prices", ErrNoValidTokens)
	}
	return normalized, nil
}
