// Package scheduler owns the refresh state machine. It is the only
// component that talks to upstream providers, and it runs as a single
// sequential worker: at most one fetch campaign executes at a time no
// matter how many timer ticks and request kicks ask for one.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/cache"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/metrics"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/models"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/oracle"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/provider"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Scheduler states.
const (
	StateIdle     = "idle"
	StateFetching = "fetching"
	StateBackoff  = "backoff"
)

// Kick outcomes reported to the manual trigger endpoint.
const (
	KickTriggered  = "triggered"
	KickInProgress = "in_progress"
	KickBackoff    = "backoff"
)

// PriceFetcher is the multi-source fetch operation the scheduler drives.
type PriceFetcher interface {
	Fetch(ctx context.Context, tokenIDs []string) (provider.Normalized, string, error)
}

// Config holds the scheduler's timing and retry parameters.
type Config struct {
	Tokens             []string
	MarginNGN          float64
	Interval           time.Duration
	MinRequestInterval time.Duration
	BackoffBase        time.Duration
	BackoffCeiling     time.Duration
	MaxRetries         int
	InitialRetryDelay  time.Duration
	FetchTimeout       time.Duration
}

// Status is a point-in-time snapshot of the scheduler state for health
// reporting and retry hints.
type Status struct {
	State               string    `json:"state"`
	FetchAttempts       int       `json:"fetch_attempts"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastSuccessfulFetch time.Time `json:"last_successful_fetch,omitempty"`
	LastRequestTime     time.Time `json:"last_request_time,omitempty"`
	RateLimitedUntil    time.Time `json:"rate_limited_until,omitempty"`
	NextAttempt         time.Time `json:"next_attempt"`
}

// Scheduler runs the recurring refresh job and accepts ad hoc kicks.
type Scheduler struct {
	fetcher PriceFetcher
	store   *cache.Store
	db      *gorm.DB
	cfg     Config
	clock   Clock
	log     *zap.SugaredLogger
	kicks   chan struct{}

	mu                  sync.Mutex
	fetching            bool
	fetchAttempts       int
	consecutiveFailures int
	rateLimitedUntil    time.Time
	lastRequestTime     time.Time
	lastSuccessfulFetch time.Time
}

// New creates a scheduler. Run must be started for ticks and kicks to be
// processed.
func New(fetcher PriceFetcher, store *cache.Store, db *gorm.DB, cfg Config, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		fetcher: fetcher,
		store:   store,
		db:      db,
		cfg:     cfg,
		clock:   realClock{},
		log:     log,
		kicks:   make(chan struct{}, 1),
	}
}

// Run processes timer ticks and kicks until the context is cancelled.
// It is the single sequential worker: campaigns never overlap.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Infow("refresh scheduler started",
		"interval", s.cfg.Interval, "tokens", len(s.cfg.Tokens))

	// Populate the cache immediately rather than waiting a full interval.
	s.attempt(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.attempt(ctx)
		case <-s.kicks:
			s.attempt(ctx)
		}
	}
}

// Kick requests a refresh without blocking. It is a no-op while a fetch is
// in flight or backoff is active, and reports which.
func (s *Scheduler) Kick() string {
	s.mu.Lock()
	if s.fetching {
		s.mu.Unlock()
		return KickInProgress
	}
	if s.clock.Now().Before(s.rateLimitedUntil) {
		s.mu.Unlock()
		return KickBackoff
	}
	s.mu.Unlock()

	select {
	case s.kicks <- struct{}{}:
	default:
		// A kick is already pending; one campaign covers both.
	}
	return KickTriggered
}

// Status returns the current scheduler snapshot.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	state := StateIdle
	switch {
	case s.fetching:
		state = StateFetching
	case now.Before(s.rateLimitedUntil):
		state = StateBackoff
	}

	next := s.lastRequestTime.Add(s.cfg.Interval)
	if s.rateLimitedUntil.After(next) {
		next = s.rateLimitedUntil
	}
	if next.Before(now) {
		next = now.Add(s.cfg.MinRequestInterval)
	}

	return Status{
		State:               state,
		FetchAttempts:       s.fetchAttempts,
		ConsecutiveFailures: s.consecutiveFailures,
		LastSuccessfulFetch: s.lastSuccessfulFetch,
		LastRequestTime:     s.lastRequestTime,
		RateLimitedUntil:    s.rateLimitedUntil,
		NextAttempt:         next,
	}
}

// attempt transitions Idle -> Fetching if every guard passes: no campaign
// in flight, backoff elapsed, and the minimum spacing since the last
// upstream request respected. A rejected attempt is silent; the next tick
// or kick re-evaluates the guards.
func (s *Scheduler) attempt(ctx context.Context) {
	s.mu.Lock()
	now := s.clock.Now()
	if s.fetching ||
		now.Before(s.rateLimitedUntil) ||
		(!s.lastRequestTime.IsZero() && now.Sub(s.lastRequestTime) < s.cfg.MinRequestInterval) {
		s.mu.Unlock()
		return
	}
	s.fetching = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.fetching = false
		s.mu.Unlock()
	}()

	s.campaign(ctx)
}

// campaign runs one fetch campaign: a fetch plus a bounded number of
// delayed retries for non-rate-limit failures. Rate-limit failures end the
// campaign immediately and arm backoff. Previously cached data is never
// touched on failure.
func (s *Scheduler) campaign(ctx context.Context) {
	for retry := 0; ; retry++ {
		start := s.clock.Now()
		s.mu.Lock()
		s.lastRequestTime = start
		s.fetchAttempts++
		s.mu.Unlock()

		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		normalized, source, err := s.fetcher.Fetch(fetchCtx, s.cfg.Tokens)
		cancel()
		duration := s.clock.Now().Sub(start)

		if err == nil {
			s.completeSuccess(ctx, normalized, source, duration)
			return
		}

		if isRateLimited(err) {
			s.completeRateLimited(duration, err)
			return
		}

		metrics.FetchAttemptsTotal.WithLabelValues(sourceOrNone(source), models.FetchOutcomeError).Inc()
		s.appendLog(models.FetchLog{
			Outcome:    models.FetchOutcomeError,
			Source:     source,
			TokenCount: len(s.cfg.Tokens),
			DurationMs: duration.Milliseconds(),
			Error:      err.Error(),
		})

		if retry >= s.cfg.MaxRetries {
			s.log.Warnw("fetch failed, retry budget exhausted", "retries", retry, "error", err.Error())
			return
		}

		delay := s.cfg.InitialRetryDelay << retry
		s.log.Warnw("fetch failed, retrying", "retry", retry+1, "delay", delay, "error", err.Error())
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(delay):
		}
	}
}

func (s *Scheduler) completeSuccess(ctx context.Context, normalized provider.Normalized, source string, duration time.Duration) {
	records := oracle.ApplyMargin(normalized, source, s.cfg.MarginNGN, s.clock.Now())
	if err := s.store.Upsert(ctx, records); err != nil {
		s.log.Errorw("cache upsert failed", "error", err.Error())
		s.appendLog(models.FetchLog{
			Outcome:    models.FetchOutcomeError,
			Source:     source,
			TokenCount: len(records),
			DurationMs: duration.Milliseconds(),
			Error:      err.Error(),
		})
		return
	}

	s.mu.Lock()
	s.consecutiveFailures = 0
	s.lastSuccessfulFetch = s.clock.Now()
	s.mu.Unlock()

	metrics.ConsecutiveFailures.Set(0)
	metrics.FetchAttemptsTotal.WithLabelValues(source, models.FetchOutcomeSuccess).Inc()
	s.appendLog(models.FetchLog{
		Outcome:    models.FetchOutcomeSuccess,
		Source:     source,
		TokenCount: len(records),
		DurationMs: duration.Milliseconds(),
	})
	s.log.Infow("refresh completed", "source", source, "tokens", len(records))
}

func (s *Scheduler) completeRateLimited(duration time.Duration, err error) {
	s.mu.Lock()
	s.consecutiveFailures++
	backoff := backoffDuration(s.cfg.BackoffBase, s.cfg.BackoffCeiling, s.consecutiveFailures)
	s.rateLimitedUntil = s.clock.Now().Add(backoff)
	failures := s.consecutiveFailures
	until := s.rateLimitedUntil
	s.mu.Unlock()

	metrics.ConsecutiveFailures.Set(float64(failures))
	metrics.FetchAttemptsTotal.WithLabelValues("none", models.FetchOutcomeRateLimited).Inc()
	s.appendLog(models.FetchLog{
		Outcome:    models.FetchOutcomeRateLimited,
		TokenCount: len(s.cfg.Tokens),
		DurationMs: duration.Milliseconds(),
		Error:      err.Error(),
	})
	s.log.Warnw("rate limited, backing off",
		"consecutive_failures", failures, "backoff", backoff, "until", until)
}

// backoffDuration computes min(base * 2^(failures-1), ceiling). The spacing
// between upstream calls is non-decreasing while backed off.
func backoffDuration(base, ceiling time.Duration, failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}
	d := base
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= ceiling || d <= 0 {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

func (s *Scheduler) appendLog(entry models.FetchLog) {
	if err := s.db.Create(&entry).Error; err != nil {
		s.log.Warnw("failed to append fetch log", "error", err.Error())
	}
}

func isRateLimited(err error) bool {
	var fetchErr *oracle.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.RateLimited || errors.Is(fetchErr.Cause, provider.ErrRateLimited)
	}
	return errors.Is(err, provider.ErrRateLimited)
}

func sourceOrNone(source string) string {
	if source == "" {
		return "none"
	}
	return source
}
