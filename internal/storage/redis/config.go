package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// RunID namespaces every key so separate server runs never share history
	RunID string

	// HistoryTTL is refreshed on every write
	HistoryTTL time.Duration
	// MaxResults caps the history list length
	MaxResults int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		RunID:        "default",
		HistoryTTL:   24 * time.Hour,
		MaxResults:   1000,
	}
}
