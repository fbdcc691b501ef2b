// internal/models/retrieval.go
package models

// SortKey selects the primary ordering of the relational query.
type SortKey string

const (
	SortByAum      SortKey = "aum"
	SortByActivity SortKey = "activity"
)

// FirmQuery is the typed shape of the primary relational filter query.
type FirmQuery struct {
	State  string   `json:"state,omitempty"`
	Cities []string `json:"cities,omitempty"`
	MinAum *float64 `json:"minAum,omitempty"`
	// CRDs restricts the query to the given firms when non-empty.
	CRDs   []string `json:"crds,omitempty"`
	SortBy SortKey  `json:"sortBy,omitempty"`
	Limit  int      `json:"limit"`
}

// FirmFundLabel is one (firm, raw fund label) group with its fund count.
type FirmFundLabel struct {
	CRD   string `json:"crd"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RetrievalResult carries every sub-query output of one retrieval, keyed by
// firm identifier, ready for merging.
type RetrievalResult struct {
	Rows       []FirmRow              `json:"rows"`
	Narratives map[string]string      `json:"narratives"`
	Executives map[string][]Executive `json:"executives"`
	Funds      map[string][]Fund      `json:"funds"`
	Matches    []VectorMatch          `json:"matches"`
	// Members is the category-membership set; nil means no category filter.
	Members        map[string]bool `json:"members,omitempty"`
	FundTypeCounts map[string]int  `json:"fundTypeCounts,omitempty"`
	SortBy         SortKey         `json:"sortBy"`
	// Degraded names the auxiliary joins that failed.
	Degraded []string `json:"degraded,omitempty"`
}

// LLMOutcome is the tagged result of one LLM decomposition attempt: either
// Success with Filters, or a failure with Reason. Filters is meaningless on
// failure.
type LLMOutcome struct {
	Success    bool              `json:"success"`
	Filters    StructuredFilters `json:"filters"`
	Reason     string            `json:"reason,omitempty"`
	DurationMs int64             `json:"durationMs"`
}

func LLMSuccess(filters StructuredFilters, durationMs int64) LLMOutcome {
	return LLMOutcome{Success: true, Filters: filters, DurationMs: durationMs}
}

func LLMFailure(reason string, durationMs int64) LLMOutcome {
	return LLMOutcome{Reason: reason, DurationMs: durationMs}
}
