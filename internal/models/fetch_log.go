package models

import (
	"time"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/uuid"

	"gorm.io/gorm"
)

// Fetch outcomes recorded in the audit trail.
const (
	FetchOutcomeSuccess     = "success"
	FetchOutcomeRateLimited = "rate_limited"
	FetchOutcomeError       = "error"
)

// FetchLog is an append-only audit row for one upstream fetch attempt.
// Rows are written once and never mutated.
type FetchLog struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	Outcome    string    `gorm:"not null;index" json:"outcome"`
	Source     string    `json:"source"`
	TokenCount int       `json:"token_count"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new rows.
func (f *FetchLog) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New()
	}
	return nil
}
