package testutil

import (
	"testing"
	"time"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/models"

	"gorm.io/gorm"
)

// FloatPtr returns a pointer to v, for building price fixtures inline.
func FloatPtr(v float64) *float64 {
	return &v
}

// CreateTestPriceRecord persists a price record with sensible defaults and
// the given token id and age.
func CreateTestPriceRecord(t *testing.T, db *gorm.DB, tokenID string, age time.Duration) *models.PriceRecord {
	t.Helper()

	record := &models.PriceRecord{
		TokenID:              tokenID,
		USDPrice:             FloatPtr(100),
		NGNPrice:             FloatPtr(150050),
		NGNPriceBeforeMargin: FloatPtr(150000),
		Source:               models.SourceCoinGecko,
		LastUpdated:          time.Now().UTC().Add(-age),
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create price record fixture: %v", err)
	}
	return record
}

// CreateTestFetchLog persists a fetch log row with the given outcome.
func CreateTestFetchLog(t *testing.T, db *gorm.DB, outcome string) *models.FetchLog {
	t.Helper()

	log := &models.FetchLog{
		Outcome:    outcome,
		Source:     models.SourceCoinGecko,
		TokenCount: 9,
		DurationMs: 120,
	}
	if err := db.Create(log).Error; err != nil {
		t.Fatalf("failed to create fetch log fixture: %v", err)
	}
	return log
}
