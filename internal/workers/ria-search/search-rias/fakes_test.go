package searchrias

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ria-hunter/internal/models"
)

type fakeLLM struct {
	outcome models.LLMOutcome
	delay   time.Duration
	calls   int
	mu      sync.Mutex
}

func (f *fakeLLM) Attempt(ctx context.Context, text string) models.LLMOutcome {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return models.LLMFailure("canceled", 0)
		}
	}
	return f.outcome
}

type fakeRetriever struct {
	result  *models.RetrievalResult
	err     error
	calls   int
	filters models.StructuredFilters
	vector  []float32
	limit   int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, filters models.StructuredFilters, vector []float32, limit int) (*models.RetrievalResult, error) {
	f.calls++
	f.filters = filters
	f.vector = vector
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return &models.RetrievalResult{}, nil
	}
	r := *f.result
	return &r, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
	mu     sync.Mutex
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memoryRepository backs a real executor with an in-memory adviser table.
type memoryRepository struct {
	firms  []models.FirmRow
	labels []models.FirmFundLabel
	funds  map[string][]models.Fund
}

func newMemoryRepository() *memoryRepository {
	r := &memoryRepository{funds: map[string][]models.Fund{}}
	for i := 1; i <= 7; i++ {
		crd := fmt.Sprintf("%d", 100+i)
		r.firms = append(r.firms, models.FirmRow{
			CRD:              crd,
			Name:             fmt.Sprintf("St. Louis Adviser %d", i),
			City:             "ST. LOUIS",
			State:            "MO",
			Aum:              float64(i) * 1e9,
			PrivateFundCount: i * 2,
			PrivateFundAum:   float64(i) * 1e8,
		})
		r.labels = append(r.labels, models.FirmFundLabel{CRD: crd, Label: "Private Equity Fund", Count: i * 2})
		r.funds[crd] = []models.Fund{{Name: "Fund " + crd, Type: models.FundTypePE, Aum: 1e8}}
	}
	r.firms = append(r.firms, models.FirmRow{CRD: "12345678", Name: "Lookup Capital", City: "CLAYTON", State: "MO", Aum: 3e8})
	return r
}

func (r *memoryRepository) FilteredSearch(ctx context.Context, q models.FirmQuery) ([]models.FirmRow, error) {
	var out []models.FirmRow
	for _, f := range r.firms {
		if q.State != "" && f.State != q.State {
			continue
		}
		if len(q.Cities) > 0 && !contains(q.Cities, f.City) {
			continue
		}
		if len(q.CRDs) > 0 && !contains(q.CRDs, f.CRD) {
			continue
		}
		if q.MinAum != nil && f.Aum < *q.MinAum {
			continue
		}
		if len(out) < q.Limit {
			out = append(out, f)
		}
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *memoryRepository) FindByCRD(ctx context.Context, crd string) (*models.FirmRow, error) {
	for _, f := range r.firms {
		if f.CRD == crd {
			row := f
			return &row, nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) FirmFundLabels(ctx context.Context, q models.FirmQuery) ([]models.FirmFundLabel, error) {
	return r.labels, nil
}

func (r *memoryRepository) FundTypeCounts(ctx context.Context, crds []string) ([]models.FundTypeCount, error) {
	return []models.FundTypeCount{{Label: "Private Equity Fund", Count: len(crds)}}, nil
}

func (r *memoryRepository) Narratives(ctx context.Context, crds []string) (map[string]string, error) {
	return nil, errors.New("narratives table unavailable")
}

func (r *memoryRepository) Executives(ctx context.Context, crds []string) (map[string][]models.Executive, error) {
	return map[string][]models.Executive{}, nil
}

func (r *memoryRepository) Funds(ctx context.Context, crds []string) (map[string][]models.Fund, error) {
	return r.funds, nil
}
