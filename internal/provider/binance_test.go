package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBinanceProvider_Fetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"symbol": "BTCUSDT", "price": "67000.50"},
			{"symbol": "SOLUSDT", "price": "155.25"}
		]`))
	}))
	defer server.Close()

	p := &BinanceProvider{
		httpClient: server.Client(),
		baseURL:    server.URL,
		rates:      fixedRateSource{rate: 1500},
	}

	normalized, err := p.Fetch(context.Background(), []string{"bitcoin", "solana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	btc := normalized["bitcoin"]
	if btc.USD == nil || *btc.USD != 67000.50 {
		t.Errorf("bitcoin USD = %v, want 67000.50", btc.USD)
	}
	if btc.NGN == nil || *btc.NGN != 67000.50*1500 {
		t.Errorf("bitcoin NGN = %v, want %v", btc.NGN, 67000.50*1500)
	}
}

func TestBinanceProvider_Fetch_TetherPinned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("tether alone must not trigger an upstream request")
	}))
	defer server.Close()

	p := &BinanceProvider{
		httpClient: server.Client(),
		baseURL:    server.URL,
		rates:      fixedRateSource{rate: 1500},
	}

	normalized, err := p.Fetch(context.Background(), []string{"tether"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	usdt := normalized["tether"]
	if usdt.USD == nil || *usdt.USD != 1 {
		t.Errorf("tether USD = %v, want 1", usdt.USD)
	}
	if usdt.NGN == nil || *usdt.NGN != 1500 {
		t.Errorf("tether NGN = %v, want 1500", usdt.NGN)
	}
}

func TestBinanceProvider_Fetch_RateLimitStatuses(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusTeapot} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		p := &BinanceProvider{
			httpClient: server.Client(),
			baseURL:    server.URL,
			rates:      fixedRateSource{rate: 1500},
		}

		_, err := p.Fetch(context.Background(), []string{"bitcoin"})
		if !errors.Is(err, ErrRateLimited) {
			t.Errorf("status %d: expected ErrRateLimited, got %v", status, err)
		}
		server.Close()
	}
}

func TestBinanceProvider_Fetch_SkipsUnparseablePrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"symbol": "BTCUSDT", "price": "not-a-number"},
			{"symbol": "SOLUSDT", "price": "155.25"}
		]`))
	}))
	defer server.Close()

	p := &BinanceProvider{
		httpClient: server.Client(),
		baseURL:    server.URL,
		rates:      fixedRateSource{rate: 1500},
	}

	normalized, err := p.Fetch(context.Background(), []string{"bitcoin", "solana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := normalized["bitcoin"]; ok {
		t.Error("unparseable price must drop the token")
	}
	if _, ok := normalized["solana"]; !ok {
		t.Error("valid price must survive a sibling parse failure")
	}
}

func TestBinanceProvider_Fetch_NoMappedTokens(t *testing.T) {
	p := &BinanceProvider{
		httpClient: http.DefaultClient,
		baseURL:    "http://127.0.0.1:0", // must not be reached
		rates:      fixedRateSource{rate: 1500},
	}

	_, err := p.Fetch(context.Background(), []string{"obscurecoin"})
	if !errors.Is(err, ErrNoValidTokens) {
		t.Fatalf("expected ErrNoValidTokens, got %v", err)
	}
}
