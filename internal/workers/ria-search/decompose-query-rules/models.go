// internal/workers/ria-search/decompose-query-rules/models.go
package decomposequeryrules

import "ria-hunter/internal/models"

type Input struct {
	Text string `json:"text"`
}

type Output struct {
	FallbackFilters models.StructuredFilters   `json:"fallbackFilters"`
	Source          models.DecompositionSource `json:"source"`
}
