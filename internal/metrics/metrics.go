// Package metrics exposes Prometheus instrumentation for the price service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchAttemptsTotal counts upstream fetch attempts by source and outcome.
	FetchAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paycrypt_fetch_attempts_total",
		Help: "Upstream fetch attempts by source and outcome.",
	}, []string{"source", "outcome"})

	// CacheReadsTotal counts price reads by serving tier.
	CacheReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paycrypt_cache_reads_total",
		Help: "Price reads by serving tier (memory, durable, default, none).",
	}, []string{"tier"})

	// ConsecutiveFailures tracks the scheduler's consecutive failure count.
	ConsecutiveFailures = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "paycrypt_consecutive_fetch_failures",
		Help: "Consecutive upstream fetch failures driving backoff.",
	})

	// RequestDuration observes price request latency by response status.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paycrypt_price_request_duration_seconds",
		Help:    "Price request latency by response status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
