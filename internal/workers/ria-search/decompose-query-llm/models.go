// internal/workers/ria-search/decompose-query-llm/models.go
package decomposequeryllm

import "ria-hunter/internal/models"

type Input struct {
	Text string `json:"text"`
}

type Output struct {
	LLMOutcome models.LLMOutcome `json:"llmOutcome"`
}
