// internal/workers/ria-search/search-rias/models.go
package searchrias

import "ria-hunter/internal/models"

type Input struct {
	Text    string                  `json:"text"`
	Filters *models.FilterOverrides `json:"filters,omitempty"`
	Limit   *int                    `json:"limit,omitempty"`
}

// Request converts job variables into a search submission.
func (i *Input) Request() models.SearchRequest {
	return models.SearchRequest{Text: i.Text, Filters: i.Filters, Limit: i.Limit}
}

type Output struct {
	SearchResponse *models.SearchResponse `json:"searchResponse"`
}
