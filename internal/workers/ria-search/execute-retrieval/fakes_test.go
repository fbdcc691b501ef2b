package executeretrieval

import (
	"context"
	"sync"

	"ria-hunter/internal/models"
)

// fakeRepository serves rows from memory and applies FirmQuery filters the
// way the SQL repository does.
type fakeRepository struct {
	mu      sync.Mutex
	firms   []models.FirmRow
	labels  []models.FirmFundLabel
	funds   map[string][]models.Fund
	execs   map[string][]models.Executive
	stories map[string]string
	counts  []models.FundTypeCount
	queries []models.FirmQuery

	searchErr     error
	labelsErr     error
	narrativesErr error
	executivesErr error
	fundsErr      error
	countsErr     error
	slowFunds     bool
}

func (f *fakeRepository) record(q models.FirmQuery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
}

func (f *fakeRepository) recorded() []models.FirmQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.FirmQuery(nil), f.queries...)
}

func (f *fakeRepository) matches(row models.FirmRow, q models.FirmQuery) bool {
	if q.State != "" && row.State != q.State {
		return false
	}
	if len(q.Cities) > 0 && !contains(q.Cities, row.City) {
		return false
	}
	if q.MinAum != nil && row.Aum < *q.MinAum {
		return false
	}
	if len(q.CRDs) > 0 && !contains(q.CRDs, row.CRD) {
		return false
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (f *fakeRepository) FilteredSearch(ctx context.Context, q models.FirmQuery) ([]models.FirmRow, error) {
	f.record(q)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []models.FirmRow
	for _, r := range f.firms {
		if f.matches(r, q) && len(out) < q.Limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepository) FindByCRD(ctx context.Context, crd string) (*models.FirmRow, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	for _, r := range f.firms {
		if r.CRD == crd {
			row := r
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) FirmFundLabels(ctx context.Context, q models.FirmQuery) ([]models.FirmFundLabel, error) {
	if f.labelsErr != nil {
		return nil, f.labelsErr
	}
	return f.labels, nil
}

func (f *fakeRepository) FundTypeCounts(ctx context.Context, crds []string) ([]models.FundTypeCount, error) {
	if f.countsErr != nil {
		return nil, f.countsErr
	}
	return f.counts, nil
}

func (f *fakeRepository) Narratives(ctx context.Context, crds []string) (map[string]string, error) {
	if f.narrativesErr != nil {
		return nil, f.narrativesErr
	}
	return f.stories, nil
}

func (f *fakeRepository) Executives(ctx context.Context, crds []string) (map[string][]models.Executive, error) {
	if f.executivesErr != nil {
		return nil, f.executivesErr
	}
	return f.execs, nil
}

func (f *fakeRepository) Funds(ctx context.Context, crds []string) (map[string][]models.Fund, error) {
	if f.fundsErr != nil {
		return nil, f.fundsErr
	}
	if f.slowFunds {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.funds, nil
}

type fakeIndex struct {
	matches []models.VectorMatch
	err     error
	state   string
	calls   int
}

func (f *fakeIndex) NearestNeighbors(ctx context.Context, vector []float32, limit int, state string) ([]models.VectorMatch, error) {
	f.calls++
	f.state = state
	if f.err != nil {
		return nil, f.err
	}
	if len(f.matches) > limit {
		return f.matches[:limit], nil
	}
	return f.matches, nil
}
