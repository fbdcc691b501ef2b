// internal/workers/ria-search/execute-retrieval/config.go
package executeretrieval

import "time"

type Config struct {
	DefaultLimit     int
	MaxLimit         int
	CandidatePool    int
	VectorCandidates int
	AuxTimeout       time.Duration
	Timeout          time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DefaultLimit:     10,
		MaxLimit:         50,
		CandidatePool:    200,
		VectorCandidates: 50,
		AuxTimeout:       2 * time.Second,
		Timeout:          10 * time.Second,
	}
}
