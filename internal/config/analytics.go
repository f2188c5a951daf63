package config

import "time"

// AnalyticsConfig holds dashboard aggregation settings
type AnalyticsConfig struct {
	// HighThreshold counts ratings >= this value in the high share
	HighThreshold int `json:"highThreshold"`

	// LowThreshold counts ratings <= this value in the low share
	LowThreshold int `json:"lowThreshold"`

	// CacheTTL is how long a computed dashboard stays in the cache
	CacheTTL time.Duration `json:"cacheTtl"`
}

// DefaultAnalyticsConfig returns the analytics configuration from the environment
func DefaultAnalyticsConfig() *AnalyticsConfig {
	return &AnalyticsConfig{
		HighThreshold: getInt("HIGH_THRESHOLD", 8),
		LowThreshold:  getInt("LOW_THRESHOLD", 4),
		CacheTTL:      getDuration("DASHBOARD_CACHE_TTL", 10*time.Minute),
	}
}
