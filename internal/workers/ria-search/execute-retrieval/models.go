// internal/workers/ria-search/execute-retrieval/models.go
package executeretrieval

import "ria-hunter/internal/models"

type Input struct {
	Filters models.StructuredFilters `json:"selectedFilters"`
	Vector  []float32                `json:"queryVector,omitempty"`
	Limit   int                      `json:"limit,omitempty"`
}

type Output struct {
	Retrieval models.RetrievalResult `json:"retrieval"`
	Limit     int                    `json:"limit"`
}
