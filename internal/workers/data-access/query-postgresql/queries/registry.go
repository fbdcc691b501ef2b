// internal/workers/data-access/query-postgresql/queries/registry.go
package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ria-hunter/internal/models"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// Query names accepted by the query-postgresql worker.
const (
	QueryFirmSearch     = "firm_search"
	QueryFirmByCRD      = "firm_by_crd"
	QueryFirmFundLabels = "firm_fund_labels"
	QueryFundTypeCounts = "fund_type_counts"
	QueryNarratives     = "narratives"
	QueryExecutives     = "executives"
	QueryFunds          = "funds"
)

// Params carries the arguments of every registered query.
type Params struct {
	CRD   string
	CRDs  []string
	Query models.FirmQuery
}

// QueryFunc returns: data, rowCount, error
type QueryFunc func(ctx context.Context, repo *Repository, p Params) (interface{}, int, error)

var Registry = map[string]QueryFunc{
	QueryFirmSearch: func(ctx context.Context, repo *Repository, p Params) (interface{}, int, error) {
		rows, err := repo.FilteredSearch(ctx, p.Query)
		return rows, len(rows), err
	},
	QueryFirmByCRD: func(ctx context.Context, repo *Repository, p Params) (interface{}, int, error) {
		if p.CRD == "" {
			return nil, 0, fmt.Errorf("%w: crd", ErrMissingParam)
		}
		row, err := repo.FindByCRD(ctx, p.CRD)
		if err != nil || row == nil {
			return nil, 0, err
		}
		return row, 1, nil
	},
	QueryFirmFundLabels: func(ctx context.Context, repo *Repository, p Params) (interface{}, int, error) {
		labels, err := repo.FirmFundLabels(ctx, p.Query)
		return labels, len(labels), err
	},
	QueryFundTypeCounts: func(ctx context.Context, repo *Repository, p Params) (interface{}, int, error) {
		counts, err := repo.FundTypeCounts(ctx, p.CRDs)
		return counts, len(counts), err
	},
	QueryNarratives: func(ctx context.Context, repo *Repository, p Params) (interface{}, int, error) {
		if len(p.CRDs) == 0 {
			return nil, 0, fmt.Errorf("%w: crds", ErrMissingParam)
		}
		m, err := repo.Narratives(ctx, p.CRDs)
		return m, len(m), err
	},
	QueryExecutives: func(ctx context.Context, repo *Repository, p Params) (interface{}, int, error) {
		if len(p.CRDs) == 0 {
			return nil, 0, fmt.Errorf("%w: crds", ErrMissingParam)
		}
		m, err := repo.Executives(ctx, p.CRDs)
		return m, len(m), err
	},
	QueryFunds: func(ctx context.Context, repo *Repository, p Params) (interface{}, int, error) {
		if len(p.CRDs) == 0 {
			return nil, 0, fmt.Errorf("%w: crds", ErrMissingParam)
		}
		m, err := repo.Funds(ctx, p.CRDs)
		return m, len(m), err
	},
}

// Execute runs a registered query and reports its execution time in ms.
func Execute(ctx context.Context, repo *Repository, queryType string, p Params) (interface{}, int, int64, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
	start := time.Now()
	data, n, err := fn(ctx, repo, p)
	return data, n, time.Since(start).Milliseconds(), err
}
