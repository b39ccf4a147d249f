package oracle

import (
	"time"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/models"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/provider"
)

// ApplyMargin converts raw provider output into margin-inclusive price
// records. For every quote with an NGN price the configured additive margin
// is applied once and the pre-margin value retained; USD prices and quotes
// without an NGN side pass through unchanged.
//
// The input is the raw normalized mapping, never existing records: records
// already carry a margin-inclusive price, and taking the raw mapping as the
// only input keeps a second application from type-checking at all.
func ApplyMargin(normalized provider.Normalized, source string, margin float64, now time.Time) []models.PriceRecord {
	records := make([]models.PriceRecord, 0, len(normalized))
	for tokenID, quote := range normalized {
		record := models.PriceRecord{
			TokenID:     tokenID,
			USDPrice:    quote.USD,
			Source:      source,
			LastUpdated: now.UTC(),
		}
		if quote.NGN != nil {
			before := *quote.NGN
			after := before + margin
			record.NGNPriceBeforeMargin = &before
			record.NGNPrice = &after
		}
		records = append(records, record)
	}
	return records
}
