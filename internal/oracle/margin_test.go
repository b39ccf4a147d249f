package oracle

import (
	"testing"
	"time"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/models"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/provider"
)

func TestApplyMargin_AddsMarginOnce(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	normalized := provider.Normalized{
		"bitcoin": {USD: provider.Float(67000), NGN: provider.Float(100500000)},
	}

	records := ApplyMargin(normalized, models.SourceCoinGecko, 50, now)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.TokenID != "bitcoin" {
		t.Errorf("token id = %q, want bitcoin", r.TokenID)
	}
	if r.NGNPriceBeforeMargin == nil || *r.NGNPriceBeforeMargin != 100500000 {
		t.Errorf("pre-margin NGN = %v, want 100500000", r.NGNPriceBeforeMargin)
	}
	if r.NGNPrice == nil || *r.NGNPrice != 100500050 {
		t.Errorf("NGN = %v, want 100500050", r.NGNPrice)
	}
	if r.USDPrice == nil || *r.USDPrice != 67000 {
		t.Errorf("USD = %v, want 67000 unchanged", r.USDPrice)
	}
	if !r.LastUpdated.Equal(now) {
		t.Errorf("last updated = %v, want %v", r.LastUpdated, now)
	}
	if r.Source != models.SourceCoinGecko {
		t.Errorf("source = %q, want coingecko", r.Source)
	}
}

func TestApplyMargin_NoNGNQuotePassesThrough(t *testing.T) {
	normalized := provider.Normalized{
		"bitcoin": {USD: provider.Float(67000)},
	}

	records := ApplyMargin(normalized, models.SourceCoinMarketCap, 50, time.Now())
	r := records[0]
	if r.NGNPrice != nil {
		t.Errorf("NGN = %v, want nil when the provider has no NGN side", r.NGNPrice)
	}
	if r.NGNPriceBeforeMargin != nil {
		t.Errorf("pre-margin NGN = %v, want nil", r.NGNPriceBeforeMargin)
	}
	if r.USDPrice == nil || *r.USDPrice != 67000 {
		t.Errorf("USD = %v, want 67000", r.USDPrice)
	}
}

func TestApplyMargin_InvariantHoldsAcrossTokens(t *testing.T) {
	const margin = 50.0
	normalized := provider.Normalized{
		"bitcoin":  {USD: provider.Float(67000), NGN: provider.Float(100500000)},
		"tether":   {USD: provider.Float(1), NGN: provider.Float(1500)},
		"ethereum": {NGN: provider.Float(5185170)},
	}

	for _, r := range ApplyMargin(normalized, models.SourceBinance, margin, time.Now()) {
		if r.NGNPrice == nil {
			continue
		}
		if r.NGNPriceBeforeMargin == nil {
			t.Errorf("%s: NGN set without pre-margin value", r.TokenID)
			continue
		}
		if got := *r.NGNPrice - *r.NGNPriceBeforeMargin; got != margin {
			t.Errorf("%s: margin delta = %v, want %v", r.TokenID, got, margin)
		}
	}
}

func TestApplyMargin_EmptyInput(t *testing.T) {
	records := ApplyMargin(provider.Normalized{}, models.SourceCoinGecko, 50, time.Now())
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}
