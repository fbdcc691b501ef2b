// Package fundtype maps free-text private fund labels onto the canonical
// short taxonomy.
package fundtype

import (
	"sort"
	"strings"

	"ria-hunter/internal/models"
)

// UnknownLabel is the bucket label for empty raw fund types.
const UnknownLabel = "Unknown"

type rule struct {
	fundType models.CanonicalFundType
	any      []string
	exclude  []string
}

// Order matters: "real estate" is tested before "reit" with an explicit
// exclusion so REIT-named labels fall through to REIT.
var rules = []rule{
	{fundType: models.FundTypeVC, any: []string{"venture"}},
	{fundType: models.FundTypePE, any: []string{"private equity"}},
	{fundType: models.FundTypeHF, any: []string{"hedge"}},
	{fundType: models.FundTypeRE, any: []string{"real estate"}, exclude: []string{"reit"}},
	{fundType: models.FundTypeREIT, any: []string{"reit"}},
	{fundType: models.FundTypeFoF, any: []string{"fund of funds"}},
	{fundType: models.FundTypeCredit, any: []string{"credit", "debt", "fixed income"}},
	{fundType: models.FundTypeCommodity, any: []string{"commodity"}},
	{fundType: models.FundTypeBDC, any: []string{"bdc"}},
	{fundType: models.FundTypeCEF, any: []string{"closed-end", "closed end"}},
	{fundType: models.FundTypeOEF, any: []string{"open-end", "open end", "mutual fund"}},
	{fundType: models.FundTypeMLP, any: []string{"mlp"}},
	{fundType: models.FundTypeInfra, any: []string{"infrastructure"}},
	{fundType: models.FundTypeEnergy, any: []string{"energy"}},
}

// Classify returns the canonical type for a raw label. It is a pure function
// of the lower-cased input; unmatched or empty input is Other.
func Classify(label string) models.CanonicalFundType {
	l := strings.ToLower(label)
	if strings.TrimSpace(l) == "" {
		return models.FundTypeOther
	}
	for _, r := range rules {
		if containsAny(l, r.any) && !containsAny(l, r.exclude) {
			return r.fundType
		}
	}
	return models.FundTypeOther
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// BucketLabel is applied to raw labels before aggregation: empty or null
// labels become "Unknown".
func BucketLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownLabel
	}
	return raw
}

// Aggregate folds group-by-count rows over raw labels into canonical
// buckets.
func Aggregate(counts []models.FundTypeCount) map[models.CanonicalFundType]int {
	out := make(map[models.CanonicalFundType]int)
	for _, c := range counts {
		out[Classify(BucketLabel(c.Label))] += c.Count
	}
	return out
}

// SortedTypes returns the keys of an aggregate, largest bucket first and
// ties broken by name.
func SortedTypes(agg map[models.CanonicalFundType]int) []models.CanonicalFundType {
	keys := make([]models.CanonicalFundType, 0, len(agg))
	for k := range agg {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if agg[keys[i]] != agg[keys[j]] {
			return agg[keys[i]] > agg[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Family expands a requested category into the set used for membership
// checks. VC and PE form a single venture family, the same set that drives
// the hasVcActivity flag.
func Family(t models.CanonicalFundType) []models.CanonicalFundType {
	if t.IsVenture() {
		return append([]models.CanonicalFundType(nil), models.VentureFundTypes...)
	}
	return []models.CanonicalFundType{t}
}

// InFamily reports whether a raw label classifies into one of set.
func InFamily(label string, set []models.CanonicalFundType) bool {
	got := Classify(label)
	for _, t := range set {
		if got == t {
			return true
		}
	}
	return false
}
