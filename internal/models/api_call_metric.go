package models

import (
	"time"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/uuid"

	"gorm.io/gorm"
)

// Serving tiers recorded per request.
const (
	TierMemory  = "memory"
	TierDurable = "durable"
	TierDefault = "default"
	TierNone    = "none"
)

// APICallMetric is an append-only audit row for one served price request.
// Rows are written once and never mutated.
type APICallMetric struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	TokenIDs   string    `json:"token_ids"` // comma-separated, as requested
	ServedFrom string    `gorm:"index" json:"served_from"`
	TokenCount int       `json:"token_count"`
	Status     int       `json:"status"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new rows.
func (m *APICallMetric) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New()
	}
	return nil
}
