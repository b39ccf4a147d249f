// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Server
	Port   string
	Env    string
	APIKey string // X-API-Key for operator endpoints

	// Tracked tokens (canonical CoinGecko-style identifiers)
	Tokens []string

	// Pricing
	MarginNGN          float64 // additive margin applied to NGN prices
	FallbackUSDNGNRate float64 // used when every forex source fails

	// Cache freshness
	FreshThreshold time.Duration
	StaleThreshold time.Duration

	// Refresh scheduling
	RefreshInterval    time.Duration
	MinRequestInterval time.Duration
	BackoffBase        time.Duration
	BackoffCeiling     time.Duration
	MaxRetries         int
	InitialRetryDelay  time.Duration

	// Upstream providers
	ProviderOrder   []string // priority order, e.g. coingecko,coinmarketcap,binance
	ProviderTimeout time.Duration
	CoinGeckoAPIKey string
	CMCAPIKey       string
}

// defaultTokens is the token set refreshed by the scheduler when
// TRACKED_TOKENS is not configured.
var defaultTokens = []string{
	"bitcoin", "ethereum", "tether", "binancecoin", "solana",
	"usd-coin", "ripple", "cardano", "dogecoin", "tron",
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if present; plain environment variables win otherwise.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		Env:    getEnv("ENV", "development"),
		APIKey: getEnv("API_KEY", ""),

		Tokens: getEnvList("TRACKED_TOKENS", defaultTokens),

		MarginNGN:          getEnvFloat("MARGIN_NGN", 50),
		FallbackUSDNGNRate: getEnvFloat("FALLBACK_USD_NGN_RATE", 1500),

		FreshThreshold: getEnvDuration("FRESH_THRESHOLD", 10*time.Minute),
		StaleThreshold: getEnvDuration("STALE_THRESHOLD", 2*time.Hour),

		RefreshInterval:    getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),
		MinRequestInterval: getEnvDuration("MIN_REQUEST_INTERVAL", 30*time.Second),
		BackoffBase:        getEnvDuration("BACKOFF_BASE", time.Minute),
		BackoffCeiling:     getEnvDuration("BACKOFF_CEILING", 30*time.Minute),
		MaxRetries:         getEnvInt("MAX_RETRIES", 2),
		InitialRetryDelay:  getEnvDuration("INITIAL_RETRY_DELAY", 10*time.Second),

		ProviderOrder:   getEnvList("PROVIDER_ORDER", []string{"coingecko", "coinmarketcap", "binance"}),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
		CoinGeckoAPIKey: getEnv("COINGECKO_API_KEY", ""),
		CMCAPIKey:       getEnv("CMC_API_KEY", ""),
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses a duration environment variable, warning and
// falling back to the default on invalid values.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %v\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

// getEnvFloat parses a float environment variable with a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %v\n", key, raw, defaultValue)
		return defaultValue
	}
	return f
}

// getEnvInt parses an integer environment variable with a default.
func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

// getEnvList parses a comma-separated environment variable into a slice,
// trimming whitespace and dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
