// internal/workers/ria-search/decompose-query-llm/config.go
package decomposequeryllm

import "time"

type Config struct {
	Backend       string
	GenAIBaseURL  string
	GenAIAPIKey   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	ChatModel     string
	Timeout       time.Duration
	MaxRetries    int
}

func LoadConfig() *Config {
	return &Config{
		Backend:    "genai",
		ChatModel:  "gpt-4o-mini",
		Timeout:    4 * time.Second,
		MaxRetries: 1,
	}
}
