// internal/workers/ria-search/select-strategy/selector.go
package selectstrategy

import (
	"strings"

	"ria-hunter/internal/common/location"
	"ria-hunter/internal/models"
)

// ReasonLowConfidence marks an LLM result that succeeded below the threshold.
const ReasonLowConfidence = "low_confidence"

// Selector chooses one decomposer's filters as a whole.
type Selector struct {
	threshold float64
}

func NewSelector(threshold float64) *Selector {
	return &Selector{threshold: threshold}
}

func (s *Selector) Threshold() float64 {
	return s.threshold
}

// Select returns the LLM filters when the attempt succeeded at or above the
// threshold, otherwise the fallback filters with the reason the LLM lost.
func (s *Selector) Select(llm models.LLMOutcome, fallback models.StructuredFilters) models.Selection {
	var sel models.Selection
	switch {
	case llm.Success && llm.Filters.Confidence >= s.threshold:
		sel = models.Selection{Filters: llm.Filters, Strategy: models.SearchStrategyLLM}
	case llm.Success:
		sel = models.Selection{Filters: fallback, Strategy: models.SearchStrategyFallback, Reason: ReasonLowConfidence}
	default:
		sel = models.Selection{Filters: fallback, Strategy: models.SearchStrategyFallback, Reason: llm.Reason}
	}

	if sel.Filters.QueryType == "" {
		sel.Filters.QueryType = models.QueryTypeGeneric
	}
	return sel
}

// ApplyOverrides layers caller-supplied filters over the selected ones.
// Blank strings and unknown states are ignored. HasVcActivity is not a
// store filter and is applied by the merger.
func ApplyOverrides(filters models.StructuredFilters, overrides *models.FilterOverrides) models.StructuredFilters {
	if overrides == nil {
		return filters
	}
	if overrides.City != nil {
		if city := strings.TrimSpace(*overrides.City); city != "" {
			filters.Location.City = &city
		}
	}
	if overrides.State != nil {
		if code, ok := location.NormalizeState(*overrides.State); ok {
			filters.Location.State = &code
		}
	}
	if overrides.MinAum != nil && *overrides.MinAum >= 0 {
		minAum := *overrides.MinAum
		filters.MinAum = &minAum
	}
	return filters
}
