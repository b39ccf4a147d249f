// Package services contains the request-side business logic. The price
// service walks the read-path priority of memory, then the durable tier,
// then emergency defaults, and never blocks a request on an upstream call.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/cache"
	apperrors "github.com/16navigabraham/Paycrypt-margin-price-api/internal/errors"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/metrics"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/models"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/scheduler"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SchedulerControl is the slice of the scheduler the read path may touch:
// fire-and-forget kicks and status snapshots. Requests never wait on it.
type SchedulerControl interface {
	Kick() string
	Status() scheduler.Status
}

// TokenQuote is one token's entry in a price response.
type TokenQuote struct {
	Prices      map[string]float64 `json:"prices"`
	Source      string             `json:"source"`
	ServedFrom  string             `json:"served_from"`
	Freshness   string             `json:"freshness"`
	LastUpdated time.Time          `json:"last_updated"`
}

// QuoteResult is a served price response plus its metadata.
type QuoteResult struct {
	Tokens     map[string]TokenQuote
	ServedFrom string
	Refreshed  bool // whether a scheduler kick was fired
}

// PriceService serves currency-converted prices from the cache tiers.
type PriceService struct {
	store *cache.Store
	sched SchedulerControl
	db    *gorm.DB
	log   *zap.SugaredLogger
}

// NewPriceService creates a new PriceService.
func NewPriceService(store *cache.Store, sched SchedulerControl, db *gorm.DB, log *zap.SugaredLogger) *PriceService {
	return &PriceService{store: store, sched: sched, db: db, log: log}
}

// GetPrices serves prices for the requested tokens and currencies. The
// read path is strict priority with fall-through only on a true miss:
//
//  1. in-memory cache, served regardless of staleness;
//  2. durable tier, with hits promoted into memory;
//  3. emergency defaults when both tiers yield nothing;
//  4. a temporarily-unavailable error with a retry estimate.
//
// Serving incomplete, expired, or absent data additionally fires a
// non-blocking scheduler kick.
func (s *PriceService) GetPrices(ctx context.Context, tokenIDs, currencies []string) (*QuoteResult, error) {
	start := time.Now()

	found, missing := s.store.Get(tokenIDs)
	servedFrom := models.TierMemory

	if len(missing) > 0 {
		durable, err := s.store.ReadDurable(ctx, missing)
		if err != nil {
			s.log.Warnw("durable tier read failed", "error", err.Error())
		} else if len(durable) > 0 {
			s.store.Promote(durable)
			for _, record := range durable {
				found[record.TokenID] = record
			}
			servedFrom = models.TierDurable
		}
	}

	now := time.Now()
	needsRefresh := len(found) < len(tokenIDs)
	tokens := make(map[string]TokenQuote, len(found))
	for id, record := range found {
		freshness := s.store.Classify(record, now)
		if freshness != cache.Fresh {
			needsRefresh = true
		}
		// ServedFrom reflects the deepest tier the request had to reach;
		// individual hits may still have come from memory.
		tokens[id] = TokenQuote{
			Prices:      filterCurrencies(record, currencies),
			Source:      record.Source,
			ServedFrom:  servedFrom,
			Freshness:   freshness.String(),
			LastUpdated: record.LastUpdated,
		}
	}

	// Emergency defaults only when both tiers yielded nothing at all.
	if len(tokens) == 0 {
		servedFrom = models.TierDefault
		for _, id := range tokenIDs {
			fallback, ok := emergencyDefaults[id]
			if !ok {
				continue
			}
			tokens[id] = TokenQuote{
				Prices:      filterDefault(fallback.USD, fallback.NGN, currencies),
				Source:      models.SourceDefault,
				ServedFrom:  models.TierDefault,
				Freshness:   cache.Expired.String(),
				LastUpdated: time.Time{},
			}
		}
		needsRefresh = true
	}

	if needsRefresh {
		s.sched.Kick()
	}

	if len(tokens) == 0 {
		metrics.CacheReadsTotal.WithLabelValues(models.TierNone).Inc()
		s.recordMetric(tokenIDs, models.TierNone, 0, apperrors.ErrPriceUnavailable.StatusCode, start)
		next := s.sched.Status().NextAttempt
		return nil, apperrors.WithMessage(apperrors.ErrPriceUnavailable,
			fmt.Sprintf("No price data available yet; next fetch attempt at %s", next.UTC().Format(time.RFC3339)))
	}

	metrics.CacheReadsTotal.WithLabelValues(servedFrom).Inc()
	s.recordMetric(tokenIDs, servedFrom, len(tokens), 200, start)

	return &QuoteResult{
		Tokens:     tokens,
		ServedFrom: servedFrom,
		Refreshed:  needsRefresh,
	}, nil
}

// recordMetric appends one APICallMetric audit row per served request.
func (s *PriceService) recordMetric(tokenIDs []string, servedFrom string, count, status int, start time.Time) {
	entry := models.APICallMetric{
		TokenIDs:   strings.Join(tokenIDs, ","),
		ServedFrom: servedFrom,
		TokenCount: count,
		Status:     status,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		s.log.Warnw("failed to append api call metric", "error", err.Error())
	}
}

func filterCurrencies(record models.PriceRecord, currencies []string) map[string]float64 {
	prices := make(map[string]float64, len(currencies))
	for _, currency := range currencies {
		switch currency {
		case "usd":
			if record.USDPrice != nil {
				prices["usd"] = *record.USDPrice
			}
		case "ngn":
			if record.NGNPrice != nil {
				prices["ngn"] = *record.NGNPrice
			}
		}
	}
	return prices
}

func filterDefault(usd, ngn float64, currencies []string) map[string]float64 {
	prices := make(map[string]float64, len(currencies))
	for _, currency := range currencies {
		switch currency {
		case "usd":
			prices["usd"] = usd
		case "ngn":
			prices["ngn"] = ngn
		}
	}
	return prices
}
