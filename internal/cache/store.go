// Package cache implements the two-tier price store: a fast in-process
// mapping that is authoritative for freshness decisions, and a durable
// GORM-backed tier that survives process restarts.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Freshness is the three-tier staleness classification for a record.
type Freshness int

const (
	// Fresh records are served directly with no further action.
	Fresh Freshness = iota
	// UsableStale records are served as-is; a refresh is opportunistic.
	UsableStale
	// Expired records are still served, but a refresh must be requested.
	Expired
)

// String returns the classification name for logs and status responses.
func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case UsableStale:
		return "usable_stale"
	default:
		return "expired"
	}
}

// Stats summarizes the in-memory tier for health reporting.
type Stats struct {
	TokenCount  int       `json:"token_count"`
	OldestEntry time.Time `json:"oldest_entry,omitempty"`
	NewestEntry time.Time `json:"newest_entry,omitempty"`
}

// Store is the two-tier cache. Reads never block on writes beyond the
// in-memory mutex; the durable tier is only touched on upserts, promotions,
// and explicit fallback reads.
type Store struct {
	db             *gorm.DB
	freshThreshold time.Duration
	staleThreshold time.Duration

	mu      sync.RWMutex
	records map[string]models.PriceRecord
}

// New creates a store over the given durable tier with the configured
// freshness thresholds.
func New(db *gorm.DB, freshThreshold, staleThreshold time.Duration) *Store {
	return &Store{
		db:             db,
		freshThreshold: freshThreshold,
		staleThreshold: staleThreshold,
		records:        make(map[string]models.PriceRecord),
	}
}

// Load seeds the in-memory tier from the durable tier at process start.
func (s *Store) Load(ctx context.Context) (int, error) {
	var rows []models.PriceRecord
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("loading durable price records: %w", err)
	}

	s.mu.Lock()
	for _, row := range rows {
		s.records[row.TokenID] = row
	}
	s.mu.Unlock()

	return len(rows), nil
}

// Upsert merges records into both tiers: the in-memory mapping immediately,
// then the durable tier. Each record replaces the previous one for its token
// as a whole, so a torn usd/ngn pair is impossible. The call does not return
// until the durable write has been acknowledged.
func (s *Store) Upsert(ctx context.Context, records []models.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	for _, record := range records {
		s.records[record.TokenID] = record
	}
	s.mu.Unlock()

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_id"}},
		UpdateAll: true,
	}).Create(&records).Error
	if err != nil {
		return fmt.Errorf("upserting durable price records: %w", err)
	}
	return nil
}

// Get returns the in-memory records for the requested tokens and the list
// of tokens with no in-memory entry.
func (s *Store) Get(tokenIDs []string) (map[string]models.PriceRecord, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[string]models.PriceRecord, len(tokenIDs))
	var missing []string
	for _, id := range tokenIDs {
		if record, ok := s.records[id]; ok {
			found[id] = record
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing
}

// ReadDurable reads the durable tier for the given tokens.
func (s *Store) ReadDurable(ctx context.Context, tokenIDs []string) ([]models.PriceRecord, error) {
	if len(tokenIDs) == 0 {
		return nil, nil
	}
	var rows []models.PriceRecord
	if err := s.db.WithContext(ctx).Where("token_id IN ?", tokenIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("reading durable price records: %w", err)
	}
	return rows, nil
}

// Promote fills the in-memory tier with durable-tier hits. A promotion only
// adds data memory does not have a newer version of; last-writer-wins on
// timestamp keeps it from clobbering a concurrent scheduler upsert.
func (s *Store) Promote(records []models.PriceRecord) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		existing, ok := s.records[record.TokenID]
		if !ok || record.LastUpdated.After(existing.LastUpdated) {
			s.records[record.TokenID] = record
		}
	}
}

// Classify returns the freshness classification for a record at the given
// instant. Expired records are still served; classification only decides
// whether a refresh is additionally requested.
func (s *Store) Classify(record models.PriceRecord, now time.Time) Freshness {
	age := now.Sub(record.LastUpdated)
	switch {
	case age < s.freshThreshold:
		return Fresh
	case age < s.staleThreshold:
		return UsableStale
	default:
		return Expired
	}
}

// Snapshot returns summary statistics over the in-memory tier.
func (s *Store) Snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TokenCount: len(s.records)}
	for _, record := range s.records {
		if stats.OldestEntry.IsZero() || record.LastUpdated.Before(stats.OldestEntry) {
			stats.OldestEntry = record.LastUpdated
		}
		if record.LastUpdated.After(stats.NewestEntry) {
			stats.NewestEntry = record.LastUpdated
		}
	}
	return stats
}
