// internal/workers/ria-search/select-strategy/config.go
package selectstrategy

import "time"

type Config struct {
	ConfidenceThreshold float64
	Timeout             time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ConfidenceThreshold: 0.7,
		Timeout:             5 * time.Second,
	}
}
