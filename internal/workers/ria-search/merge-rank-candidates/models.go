// internal/workers/ria-search/merge-rank-candidates/models.go
package mergerankcandidates

import "ria-hunter/internal/models"

type Input struct {
	Retrieval models.RetrievalResult  `json:"retrieval"`
	Limit     int                     `json:"limit,omitempty"`
	Overrides *models.FilterOverrides `json:"filters,omitempty"`
}

type Output struct {
	Results        []models.Candidate `json:"results"`
	FundTypeCounts map[string]int     `json:"fundTypeCounts,omitempty"`
	Degraded       []string           `json:"degraded,omitempty"`
}
