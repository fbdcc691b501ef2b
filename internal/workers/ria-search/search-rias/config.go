// internal/workers/ria-search/search-rias/config.go
package searchrias

import "time"

type Config struct {
	ConfidenceThreshold float64
	FallbackConfidence  float64
	DefaultLimit        int
	MaxLimit            int
	// LLMTimeout is the ceiling the pipeline waits for the LLM before
	// proceeding with the fallback filters.
	LLMTimeout       time.Duration
	EmbeddingTimeout time.Duration
	RequestTimeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ConfidenceThreshold: 0.7,
		FallbackConfidence:  0.5,
		DefaultLimit:        10,
		MaxLimit:            50,
		LLMTimeout:          4 * time.Second,
		EmbeddingTimeout:    3 * time.Second,
		RequestTimeout:      15 * time.Second,
	}
}
