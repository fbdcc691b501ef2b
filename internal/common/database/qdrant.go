// internal/common/database/qdrant.go
package database

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"ria-hunter/internal/common/config"
	"ria-hunter/internal/models"
)

// QdrantClient is an alternative nearest-neighbour index over narrative
// embeddings. Points carry the adviser CRD in the "crd" payload field.
type QdrantClient struct {
	client     *qdrant.Client
	collection string
	timeout    time.Duration
	mu         sync.RWMutex
	closed     bool
}

func NewQdrant(cfg config.QdrantConfig) (*QdrantClient, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &QdrantClient{
		client:     client,
		collection: cfg.Collection,
		timeout:    timeout,
	}, nil
}

func (c *QdrantClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

func (c *QdrantClient) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("qdrant client is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

// NearestNeighbors returns up to limit (firmId, score) pairs, optionally
// restricted to one state.
func (c *QdrantClient) NearestNeighbors(ctx context.Context, vector []float32, limit int, state string) ([]models.VectorMatch, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("qdrant client is closed")
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is required")
	}
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	points, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collection,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         stateFilter(state),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	return scoredPointsToMatches(points), nil
}

func stateFilter(state string) *qdrant.Filter {
	if state == "" {
		return nil
	}
	return &qdrant.Filter{
		Must: []*qdrant.Condition{{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: "state",
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keyword{Keyword: state},
					},
				},
			},
		}},
	}
}

func scoredPointsToMatches(points []*qdrant.ScoredPoint) []models.VectorMatch {
	matches := make([]models.VectorMatch, 0, len(points))
	for _, p := range points {
		id := payloadString(p.Payload, "crd")
		if id == "" && p.Id != nil {
			switch v := p.Id.PointIdOptions.(type) {
			case *qdrant.PointId_Uuid:
				id = v.Uuid
			case *qdrant.PointId_Num:
				id = strconv.FormatUint(v.Num, 10)
			}
		}
		if id == "" {
			continue
		}
		matches = append(matches, models.VectorMatch{FirmID: id, Score: float64(p.Score)})
	}
	return matches
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		switch kind := v.Kind.(type) {
		case *qdrant.Value_StringValue:
			return kind.StringValue
		case *qdrant.Value_IntegerValue:
			return strconv.FormatInt(kind.IntegerValue, 10)
		}
	}
	return ""
}
