// internal/workers/data-access/query-elasticsearch/queries/registry.go
package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"ria-hunter/internal/models"
)

var ErrIndexNotFound = errors.New("index not found")

type QueryResult struct {
	Matches   []models.VectorMatch
	TotalHits int64
	MaxScore  float64
	Took      int64
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				CRD json.RawMessage `json:"crd_number"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Execute runs a narrative query and maps hits to firm matches. The firm id
// comes from _source.crd_number, falling back to the document id.
func Execute(ctx context.Context, esClient *elasticsearch.Client, nq NarrativeQuery) (*QueryResult, error) {
	req, err := BuildQuery(nq)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := req.Do(ctx, esClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, nq.Index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search query failed: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	matches := make([]models.VectorMatch, 0, len(r.Hits.Hits))
	seen := make(map[string]bool, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id := rawID(hit.Source.CRD)
		if id == "" {
			id = hit.ID
		}
		// narratives are chunked; keep the best-scoring chunk per firm
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		matches = append(matches, models.VectorMatch{FirmID: id, Score: hit.Score})
	}

	result := &QueryResult{
		Matches:   matches,
		TotalHits: r.Hits.Total.Value,
		Took:      time.Since(start).Milliseconds(),
	}
	if r.Hits.MaxScore != nil {
		result.MaxScore = *r.Hits.MaxScore
	}
	return result, nil
}

// rawID accepts both numeric and string identifiers.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return strings.Trim(string(raw), `"`)
}

// NarrativeIndex serves nearest-neighbour lookups over the narrative index.
type NarrativeIndex struct {
	client *elasticsearch.Client
	index  string
	field  string
}

func NewNarrativeIndex(client *elasticsearch.Client, index, field string) *NarrativeIndex {
	return &NarrativeIndex{client: client, index: index, field: field}
}

func (n *NarrativeIndex) NearestNeighbors(ctx context.Context, vector []float32, limit int, state string) ([]models.VectorMatch, error) {
	res, err := Execute(ctx, n.client, NarrativeQuery{
		Index:     n.index,
		QueryType: QueryNarrativeKNN,
		Field:     n.field,
		Vector:    vector,
		K:         limit,
		State:     state,
	})
	if err != nil {
		return nil, err
	}
	return res.Matches, nil
}
