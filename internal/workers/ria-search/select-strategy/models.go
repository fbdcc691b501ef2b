// internal/workers/ria-search/select-strategy/models.go
package selectstrategy

import "ria-hunter/internal/models"

type Input struct {
	LLMOutcome      models.LLMOutcome        `json:"llmOutcome"`
	FallbackFilters models.StructuredFilters `json:"fallbackFilters"`
	Overrides       *models.FilterOverrides  `json:"filters,omitempty"`
}

type Output struct {
	SelectedFilters models.StructuredFilters `json:"selectedFilters"`
	SearchStrategy  models.SearchStrategy    `json:"searchStrategy"`
	FallbackReason  string                   `json:"fallbackReason,omitempty"`
}
