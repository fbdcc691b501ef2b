package queries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
	ErrMissingVector    = errors.New("query vector is required")
	ErrMissingText      = errors.New("query text is required")
)

// Query types served by the narrative index.
const (
	QueryNarrativeKNN  = "narrative_knn"
	QueryNarrativeText = "narrative_text"
)

const (
	defaultK         = 20
	maxK             = 200
	candidatesFactor = 5
)

// NarrativeQuery describes one search over the narrative index.
type NarrativeQuery struct {
	Index     string
	QueryType string
	// Field is the dense_vector field used by kNN queries.
	Field  string
	Vector []float32
	Text   string
	K      int
	// State restricts hits to firms registered in that state.
	State string
}

// BuildQuery builds the search request for a narrative query.
func BuildQuery(nq NarrativeQuery) (*esapi.SearchRequest, error) {
	if nq.Index == "" {
		return nil, ErrMissingIndex
	}
	nq.K = clampK(nq.K)

	var queryBody map[string]interface{}

	switch nq.QueryType {
	case QueryNarrativeKNN:
		if len(nq.Vector) == 0 {
			return nil, ErrMissingVector
		}
		queryBody = buildKNNQuery(nq)
	case QueryNarrativeText:
		if nq.Text == "" {
			return nil, ErrMissingText
		}
		queryBody = buildTextQuery(nq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, nq.QueryType)
	}

	body, err := json.Marshal(queryBody)
	if err != nil {
		return nil, err
	}

	size := nq.K
	return &esapi.SearchRequest{
		Index:          []string{nq.Index},
		Body:           bytes.NewReader(body),
		Size:           &size,
		SourceIncludes: []string{"crd_number", "state"},
	}, nil
}

func clampK(k int) int {
	if k < 1 {
		return defaultK
	}
	if k > maxK {
		return maxK
	}
	return k
}

func stateFilter(state string) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{"state": state},
	}
}

// buildKNNQuery builds the approximate nearest-neighbour query
func buildKNNQuery(nq NarrativeQuery) map[string]interface{} {
	field := nq.Field
	if field == "" {
		field = "embedding"
	}

	knn := map[string]interface{}{
		"field":          field,
		"query_vector":   nq.Vector,
		"k":              nq.K,
		"num_candidates": nq.K * candidatesFactor,
	}
	if nq.State != "" {
		knn["filter"] = stateFilter(nq.State)
	}

	return map[string]interface{}{"knn": knn}
}

// buildTextQuery is the lexical fallback used when no query vector exists
func buildTextQuery(nq NarrativeQuery) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"match": map[string]interface{}{
					"narrative_text": map[string]interface{}{"query": nq.Text},
				},
			},
		},
	}
	if nq.State != "" {
		boolQuery["filter"] = []interface{}{stateFilter(nq.State)}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
}
