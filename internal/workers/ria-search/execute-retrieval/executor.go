// internal/workers/ria-search/execute-retrieval/executor.go
package executeretrieval

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	commonerrors "ria-hunter/internal/common/errors"
	"ria-hunter/internal/common/fundtype"
	"ria-hunter/internal/common/location"
	"ria-hunter/internal/common/logger"
	"ria-hunter/internal/common/metrics"
	"ria-hunter/internal/models"
)

// Auxiliary join names, used for metrics and RetrievalResult.Degraded.
const (
	JoinNarratives     = "narratives"
	JoinExecutives     = "executives"
	JoinFunds          = "funds"
	JoinFundTypeCounts = "fund_type_counts"
	JoinVector         = "vector"
)

type Executor struct {
	config *Config
	repo   Repository
	index  VectorIndex
	logger logger.Logger
}

// NewExecutor builds an executor. index may be nil, which disables the
// similarity phase.
func NewExecutor(config *Config, repo Repository, index VectorIndex, log logger.Logger) *Executor {
	return &Executor{
		config: config,
		repo:   repo,
		index:  index,
		logger: log,
	}
}

// EffectiveLimit resolves the result cap: the caller's limit (or the
// default) narrowed by an explicit "top N", bounded by maxLimit. Without a
// caller limit a "top N" is used as is.
func EffectiveLimit(requested int, topN *int, defaultLimit, maxLimit int) int {
	limit := requested
	if limit <= 0 {
		limit = defaultLimit
		if topN != nil && *topN > 0 {
			limit = *topN
		}
	} else if topN != nil && *topN > 0 && *topN < limit {
		limit = *topN
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if limit <= 0 {
		limit = 1
	}
	return limit
}

// SortKeyFor picks fund-activity ordering for ranking and activity queries
// that name a fund type, AUM otherwise.
func SortKeyFor(f models.StructuredFilters) models.SortKey {
	if f.FundTypeIntent != nil &&
		(f.QueryType == models.QueryTypeActivityFilter || f.QueryType == models.QueryTypeTopNRanking) {
		return models.SortByActivity
	}
	return models.SortByAum
}

// FirmQueryFor renders selected filters as the primary relational query.
func FirmQueryFor(f models.StructuredFilters, limit int) models.FirmQuery {
	q := models.FirmQuery{
		MinAum: f.MinAum,
		SortBy: SortKeyFor(f),
		Limit:  limit,
	}
	if f.Location.State != nil {
		q.State = *f.Location.State
	}
	if f.Location.City != nil {
		q.Cities = location.CityVariants(*f.Location.City)
	}
	return q
}

// Retrieve runs the store queries for the selected filters. Only a failure
// of the relational filter phase is returned; auxiliary and similarity
// failures are recorded in Degraded.
func (e *Executor) Retrieve(ctx context.Context, filters models.StructuredFilters, vector []float32, limit int) (*models.RetrievalResult, error) {
	result := &models.RetrievalResult{
		Rows:       []models.FirmRow{},
		Narratives: map[string]string{},
		Executives: map[string][]models.Executive{},
		Funds:      map[string][]models.Fund{},
		Matches:    []models.VectorMatch{},
		SortBy:     SortKeyFor(filters),
	}

	start := time.Now()
	var err error
	if filters.CRD != nil && filters.QueryType == models.QueryTypeFirmLookup {
		err = e.lookup(ctx, *filters.CRD, result)
	} else {
		err = e.search(ctx, filters, vector, limit, result)
	}
	metrics.ObserveSince(metrics.RetrievalDuration, "primary", start)
	if err != nil {
		return nil, commonerrors.NewRetrievalFailedError(err)
	}

	start = time.Now()
	e.joinAuxiliary(ctx, filters, result)
	metrics.ObserveSince(metrics.RetrievalDuration, "auxiliary", start)

	return result, nil
}

func (e *Executor) lookup(ctx context.Context, crd string, result *models.RetrievalResult) error {
	row, err := e.repo.FindByCRD(ctx, crd)
	if err != nil {
		return err
	}
	if row != nil {
		result.Rows = append(result.Rows, *row)
	}
	return nil
}

func (e *Executor) search(ctx context.Context, filters models.StructuredFilters, vector []float32, limit int, result *models.RetrievalResult) error {
	useVector := e.index != nil && len(vector) > 0
	var family []models.CanonicalFundType
	if filters.FundTypeIntent != nil {
		family = fundtype.Family(*filters.FundTypeIntent)
	}

	pool := limit
	if family != nil && pool < e.config.CandidatePool {
		pool = e.config.CandidatePool
	}
	if useVector && pool < e.config.VectorCandidates {
		pool = e.config.VectorCandidates
	}
	q := FirmQueryFor(filters, pool)

	var rows []models.FirmRow
	var members map[string]bool

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		rows, err = e.repo.FilteredSearch(gctx, q)
		return err
	})

	if family != nil {
		g.Go(func() error {
			labels, err := e.repo.FirmFundLabels(gctx, q)
			if err != nil {
				return err
			}
			members = make(map[string]bool)
			for _, l := range labels {
				if fundtype.InFamily(l.Label, family) {
					members[l.CRD] = true
				}
			}
			return nil
		})
	}

	if useVector {
		g.Go(func() error {
			matches, err := e.index.NearestNeighbors(gctx, vector, e.config.VectorCandidates, q.State)
			if err != nil {
				if gctx.Err() == nil {
					e.degrade(result, nil, JoinVector, err)
				}
				return nil
			}
			result.Matches = matches
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	rows = intersect(rows, members)

	// Firms surfaced only by membership or similarity are fetched under the
	// same filters so explicit constraints still hold.
	if extra := e.missing(rows, members, result.Matches, limit); len(extra) > 0 {
		followUp := q
		followUp.CRDs = extra
		followUp.Limit = len(extra)
		more, err := e.repo.FilteredSearch(ctx, followUp)
		if err != nil {
			return err
		}
		rows = append(rows, intersect(more, members)...)
	}

	result.Rows = rows
	result.Members = members
	return nil
}

func intersect(rows []models.FirmRow, members map[string]bool) []models.FirmRow {
	if members == nil {
		return rows
	}
	out := make([]models.FirmRow, 0, len(rows))
	for _, r := range rows {
		if members[r.CRD] {
			out = append(out, r)
		}
	}
	return out
}

// missing lists firm ids worth a follow-up fetch: vector matches not in
// rows, and category members when the intersection fell short of limit.
func (e *Executor) missing(rows []models.FirmRow, members map[string]bool, matches []models.VectorMatch, limit int) []string {
	have := make(map[string]bool, len(rows))
	for _, r := range rows {
		have[r.CRD] = true
	}

	seen := make(map[string]bool)
	var extra []string
	add := func(id string) {
		if id == "" || have[id] || seen[id] || len(extra) >= e.config.CandidatePool {
			return
		}
		seen[id] = true
		extra = append(extra, id)
	}

	for _, m := range matches {
		if members == nil || members[m.FirmID] {
			add(m.FirmID)
		}
	}
	if members != nil && len(rows) < limit {
		ids := make([]string, 0, len(members))
		for id := range members {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			add(id)
		}
	}
	return extra
}

func (e *Executor) joinAuxiliary(ctx context.Context, filters models.StructuredFilters, result *models.RetrievalResult) {
	if len(result.Rows) == 0 {
		return
	}
	crds := make([]string, 0, len(result.Rows))
	for _, r := range result.Rows {
		crds = append(crds, r.CRD)
	}

	auxCtx := ctx
	if e.config.AuxTimeout > 0 {
		var cancel context.CancelFunc
		auxCtx, cancel = context.WithTimeout(ctx, e.config.AuxTimeout)
		defer cancel()
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	run := func(join string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				e.degrade(result, &mu, join, err)
			}
		}()
	}

	run(JoinNarratives, func() error {
		m, err := e.repo.Narratives(auxCtx, crds)
		if err == nil && m != nil {
			mu.Lock()
			result.Narratives = m
			mu.Unlock()
		}
		return err
	})
	run(JoinExecutives, func() error {
		m, err := e.repo.Executives(auxCtx, crds)
		if err == nil && m != nil {
			mu.Lock()
			result.Executives = m
			mu.Unlock()
		}
		return err
	})
	run(JoinFunds, func() error {
		m, err := e.repo.Funds(auxCtx, crds)
		if err == nil && m != nil {
			mu.Lock()
			result.Funds = m
			mu.Unlock()
		}
		return err
	})
	if filters.FundTypeIntent != nil {
		run(JoinFundTypeCounts, func() error {
			counts, err := e.repo.FundTypeCounts(auxCtx, crds)
			if err != nil {
				return err
			}
			agg := fundtype.Aggregate(counts)
			out := make(map[string]int, len(agg))
			for t, n := range agg {
				out[string(t)] = n
			}
			mu.Lock()
			result.FundTypeCounts = out
			mu.Unlock()
			return nil
		})
	}

	wg.Wait()
	sort.Strings(result.Degraded)
}

func (e *Executor) degrade(result *models.RetrievalResult, mu *sync.Mutex, join string, err error) {
	metrics.AuxiliaryJoinFailures.WithLabelValues(join).Inc()
	e.logger.Warn("auxiliary join degraded", map[string]interface{}{
		"join":  join,
		"error": err.Error(),
	})
	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	result.Degraded = append(result.Degraded, join)
}
