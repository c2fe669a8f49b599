package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// MatchRecordTTL expires settled match records. Zero keeps them forever.
	MatchRecordTTL time.Duration
	// HistoryLength caps the per-player history index
	HistoryLength int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:            "redis://localhost:6379",
		PoolSize:       10,
		MinIdleConns:   2,
		MatchRecordTTL: 30 * 24 * time.Hour,
		HistoryLength:  100,
	}
}
