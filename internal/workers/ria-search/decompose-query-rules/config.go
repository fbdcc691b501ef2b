// internal/workers/ria-search/decompose-query-rules/config.go
package decomposequeryrules

import "time"

type Config struct {
	FallbackConfidence float64
	Timeout            time.Duration
}

func LoadConfig() *Config {
	return &Config{
		FallbackConfidence: 0.5,
		Timeout:            5 * time.Second,
	}
}
