// internal/workers/data-access/query-elasticsearch/models.go
package queryelasticsearch

import "ria-hunter/internal/models"

type Input struct {
	IndexName string    `json:"indexName"`
	QueryType string    `json:"queryType"`
	Vector    []float32 `json:"vector,omitempty"`
	Text      string    `json:"text,omitempty"`
	State     string    `json:"state,omitempty"`
	K         int       `json:"k"`
}

type Output struct {
	Matches   []models.VectorMatch `json:"matches"`
	TotalHits int64                `json:"totalHits"`
	MaxScore  float64              `json:"maxScore"`
	Took      int64                `json:"took"` // milliseconds
}
