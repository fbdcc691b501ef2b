// internal/workers/ria-search/merge-rank-candidates/config.go
package mergerankcandidates

import "time"

type Config struct {
	DefaultLimit int
	MaxLimit     int
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DefaultLimit: 10,
		MaxLimit:     50,
		Timeout:      5 * time.Second,
	}
}
