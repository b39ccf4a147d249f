package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/models"
)

const binanceBaseURL = "https://api.binance.com"

// binancePairs maps canonical identifiers to Binance spot pairs. USDT is
// treated as the USD leg; tether itself has no pair and is pinned to 1.
var binancePairs = map[string]string{
	"bitcoin":     "BTCUSDT",
	"ethereum":    "ETHUSDT",
	"binancecoin": "BNBUSDT",
	"solana":      "SOLUSDT",
	"usd-coin":    "USDCUSDT",
	"ripple":      "XRPUSDT",
	"cardano":     "ADAUSDT",
	"dogecoin":    "DOGEUSDT",
	"tron":        "TRXUSDT",
}

// binanceTicker is one element of Binance's array-of-objects response.
// Prices come back as strings.
type binanceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// BinanceProvider is the tertiary price source. Binance quotes against USDT
// only, so NGN is derived through the exchange-rate resolver.
type BinanceProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	rates      RateSource
}

// NewBinanceProvider creates a new Binance price provider.
func NewBinanceProvider(httpClient *http.Client, rates RateSource) *BinanceProvider {
	return &BinanceProvider{
		httpClient: httpClient,
		baseURL:    binanceBaseURL,
		rates:      rates,
	}
}

// Name returns the provider identifier.
func (p *BinanceProvider) Name() string { return models.SourceBinance }

// Fetch fetches USDT spot prices for mapped pairs and derives NGN via the
// rate resolver.
func (p *BinanceProvider) Fetch(ctx context.Context, tokenIDs []string) (Normalized, error) {
	pairs := make([]string, 0, len(tokenIDs))
	pairToID := make(map[string]string, len(tokenIDs))
	wantTether := false
	for _, id := range tokenIDs {
		if id == "tether" {
			wantTether = true
			continue
		}
		pair, ok := binancePairs[id]
		if !ok {
			continue
		}
		pairs = append(pairs, strconv.Quote(pair))
		pairToID[pair] = id
	}
	if len(pairs) == 0 && !wantTether {
		return nil, ErrNoValidTokens
	}

	rate := p.rates.USDToNGN(ctx)
	normalized := make(Normalized, len(pairs)+1)
	if wantTether {
		normalized["tether"] = Quote{USD: Float(1), NGN: Float(rate)}
	}

	if len(pairs) > 0 {
		query := url.Values{}
		query.Set("symbols", "["+strings.Join(pairs, ",")+"]")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			p.baseURL+"/api/v3/ticker/price?"+query.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: building binance request: %v", ErrProviderUnavailable, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: binance request: %v", ErrProviderUnavailable, err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		// Binance signals capacity exhaustion with 429 and IP bans with 418.
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusTeapot:
			return nil, fmt.Errorf("%w: binance returned %d", ErrRateLimited, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%w: binance returned status %d", ErrProviderUnavailable, resp.StatusCode)
		}

		body, err := readAll(resp)
		if err != nil {
			return nil, err
		}

		var tickers []binanceTicker
		if err := json.Unmarshal(body, &tickers); err != nil {
			return nil, fmt.Errorf("%w: decoding binance response: %v", ErrMalformedResponse, err)
		}

		for _, ticker := range tickers {
			id, ok := pairToID[ticker.Symbol]
			if !ok {
				continue
			}
			usd, err := strconv.ParseFloat(ticker.Price, 64)
			if err != nil || usd <= 0 {
				continue
			}
			normalized[id] = Quote{
				USD: Float(usd),
				NGN: Float(usd * rate),
			}
		}
	}

	if len(normalized) == 0 {
		return nil, fmt.Errorf("%w: binance returned no usable prices", ErrNoValidTokens)
	}
	return normalized, nil
}
