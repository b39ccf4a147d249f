package models

import "time"

// Price sources, in the order the fetcher tries them. SourceDefault marks
// emergency fallback values that were never fetched from an upstream.
const (
	SourceCoinGecko     = "coingecko"
	SourceCoinMarketCap = "coinmarketcap"
	SourceBinance       = "binance"
	SourceDefault       = "default"
)

// PriceRecord is the durable-tier row for one token. Records are
// overwritten on every successful fetch merge and never deleted; stale
// records are superseded, not removed.
//
// Invariant: if NGNPrice is non-nil, NGNPriceBeforeMargin is non-nil and
// NGNPrice = NGNPriceBeforeMargin + margin. USDPrice and NGNPrice may each
// independently be absent (a provider may supply only one).
type PriceRecord struct {
	TokenID              string    `gorm:"primaryKey" json:"token_id"`
	USDPrice             *float64  `json:"usd_price,omitempty"`
	NGNPrice             *float64  `json:"ngn_price,omitempty"`
	NGNPriceBeforeMargin *float64  `json:"ngn_price_before_margin,omitempty"`
	Source               string    `gorm:"not null" json:"source"`
	LastUpdated          time.Time `gorm:"not null;index" json:"last_updated"`
}
