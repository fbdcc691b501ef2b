// internal/workers/ria-search/execute-retrieval/repository.go
package executeretrieval

import (
	"context"

	"ria-hunter/internal/models"
)

// Repository is the relational store as seen by the executor, one method
// per query shape.
type Repository interface {
	FilteredSearch(ctx context.Context, q models.FirmQuery) ([]models.FirmRow, error)
	FindByCRD(ctx context.Context, crd string) (*models.FirmRow, error)
	FirmFundLabels(ctx context.Context, q models.FirmQuery) ([]models.FirmFundLabel, error)
	FundTypeCounts(ctx context.Context, crds []string) ([]models.FundTypeCount, error)
	Narratives(ctx context.Context, crds []string) (map[string]string, error)
	Executives(ctx context.Context, crds []string) (map[string][]models.Executive, error)
	Funds(ctx context.Context, crds []string) (map[string][]models.Fund, error)
}

// VectorIndex returns nearest neighbours of a query embedding, optionally
// restricted to one state.
type VectorIndex interface {
	NearestNeighbors(ctx context.Context, vector []float32, limit int, state string) ([]models.VectorMatch, error)
}
