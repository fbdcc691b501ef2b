// internal/workers/ria-search/merge-rank-candidates/merger.go
package mergerankcandidates

import (
	"sort"
	"strconv"

	"ria-hunter/internal/models"
	executeretrieval "ria-hunter/internal/workers/ria-search/execute-retrieval"
)

type Options struct {
	Limit int
	// HasVcActivity keeps only candidates whose derived flag matches. It is
	// ignored when the funds join degraded, since no flag can be derived.
	HasVcActivity *bool
}

// Merge joins relational rows with their auxiliary collections and
// similarity scores, then orders and caps the result. Rows are never
// dropped for lacking a similarity score.
func Merge(result models.RetrievalResult, opts Options) []models.Candidate {
	scores := bestScores(result.Matches)
	vcFilter := opts.HasVcActivity
	if contains(result.Degraded, executeretrieval.JoinFunds) {
		vcFilter = nil
	}

	seen := make(map[string]bool, len(result.Rows))
	candidates := make([]models.Candidate, 0, len(result.Rows))
	for _, row := range result.Rows {
		if row.CRD == "" || seen[row.CRD] {
			continue
		}
		seen[row.CRD] = true

		c := build(row, result)
		if s, ok := scores[row.CRD]; ok {
			score := s
			c.Similarity = &score
		}
		if vcFilter != nil && c.DerivedFlags.HasVcActivity != *vcFilter {
			continue
		}
		candidates = append(candidates, c)
	}

	Rank(candidates, result.SortBy)

	if opts.Limit > 0 && len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}
	return candidates
}

func build(row models.FirmRow, result models.RetrievalResult) models.Candidate {
	executives := append([]models.Executive{}, result.Executives[row.CRD]...)
	funds := append([]models.Fund{}, result.Funds[row.CRD]...)

	return models.Candidate{
		ID:               row.CRD,
		Name:             row.Name,
		City:             row.City,
		State:            row.State,
		Aum:              row.Aum,
		Narrative:        result.Narratives[row.CRD],
		Executives:       executives,
		Funds:            funds,
		DerivedFlags:     models.DerivedFlags{HasVcActivity: HasVcActivity(funds)},
		PrivateFundCount: row.PrivateFundCount,
		PrivateFundAum:   row.PrivateFundAum,
	}
}

// HasVcActivity reports whether any fund is venture capital or private
// equity.
func HasVcActivity(funds []models.Fund) bool {
	for _, f := range funds {
		if f.Type.IsVenture() {
			return true
		}
	}
	return false
}

func bestScores(matches []models.VectorMatch) map[string]float64 {
	out := make(map[string]float64, len(matches))
	for _, m := range matches {
		if prev, ok := out[m.FirmID]; !ok || m.Score > prev {
			out[m.FirmID] = m.Score
		}
	}
	return out
}

// Rank orders candidates in place. Activity ordering puts private fund
// count and private fund AUM first; both modes then use similarity
// (scored before unscored), AUM and firm id.
func Rank(candidates []models.Candidate, sortBy models.SortKey) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if sortBy == models.SortByActivity {
			if a.PrivateFundCount != b.PrivateFundCount {
				return a.PrivateFundCount > b.PrivateFundCount
			}
			if a.PrivateFundAum != b.PrivateFundAum {
				return a.PrivateFundAum > b.PrivateFundAum
			}
		}
		if cmp := compareSimilarity(a.Similarity, b.Similarity); cmp != 0 {
			return cmp > 0
		}
		if a.Aum != b.Aum {
			return a.Aum > b.Aum
		}
		return lessID(a.ID, b.ID)
	})
}

func compareSimilarity(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case b == nil:
		return 1
	case a == nil:
		return -1
	case *a > *b:
		return 1
	case *a < *b:
		return -1
	}
	return 0
}

// lessID compares numeric identifiers by value, others lexically.
func lessID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
