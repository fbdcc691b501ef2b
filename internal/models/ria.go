// internal/models/ria.go
package models

// Location is a parsed location phrase. Nil fields mean "not given".
type Location struct {
	City  *string `json:"city"`
	State *string `json:"state"`
}

// StructuredFilters is the complete output of one decomposer. A selected
// value is always used whole; fields are never mixed across sources.
type StructuredFilters struct {
	Location       Location           `json:"location"`
	FundTypeIntent *CanonicalFundType `json:"fundTypeIntent"`
	MinAum         *float64           `json:"minAum"`
	QueryType      QueryType          `json:"queryType"`
	Confidence     float64            `json:"confidence"`
	// TopN carries an explicit "top N" count from the query text.
	TopN *int `json:"topN,omitempty"`
	// CRD is set for FIRM_LOOKUP queries that name a firm identifier.
	CRD *string `json:"crd,omitempty"`
}

// DecompositionResult tags filters with the decomposer that produced them.
type DecompositionResult struct {
	Filters StructuredFilters   `json:"filters"`
	Source  DecompositionSource `json:"source"`
	Error   string              `json:"error,omitempty"`
}

// Selection is the Strategy Selector's atomic choice.
type Selection struct {
	Filters  StructuredFilters `json:"filters"`
	Strategy SearchStrategy    `json:"searchStrategy"`
	// Reason explains a fallback choice, empty when the LLM won.
	Reason string `json:"reason,omitempty"`
}

// FilterOverrides are caller-supplied filters applied after selection.
type FilterOverrides struct {
	City          *string  `json:"city,omitempty"`
	State         *string  `json:"state,omitempty"`
	MinAum        *float64 `json:"minAum,omitempty"`
	HasVcActivity *bool    `json:"hasVcActivity,omitempty"`
}

// SearchRequest is the inbound query submission.
type SearchRequest struct {
	Text    string           `json:"text"`
	Filters *FilterOverrides `json:"filters,omitempty"`
	Limit   *int             `json:"limit,omitempty"`
}

// FirmRow is one relational result row for an adviser.
type FirmRow struct {
	CRD              string  `json:"crd"`
	Name             string  `json:"name"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	Aum              float64 `json:"aum"`
	PrivateFundCount int     `json:"privateFundCount"`
	PrivateFundAum   float64 `json:"privateFundAum"`
}

// VectorMatch is one nearest-neighbour hit from the embedding index.
type VectorMatch struct {
	FirmID string  `json:"firmId"`
	Score  float64 `json:"score"`
}

// FundTypeCount is one group-by-count bucket over raw fund labels.
type FundTypeCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Executive struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type Fund struct {
	Name string            `json:"name"`
	Type CanonicalFundType `json:"type"`
	Aum  float64           `json:"aum"`
}

type DerivedFlags struct {
	HasVcActivity bool `json:"hasVcActivity"`
}

// Candidate is a fully joined firm record. Collections are never nil.
type Candidate struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	City             string       `json:"city"`
	State            string       `json:"state"`
	Aum              float64      `json:"aum"`
	Narrative        string       `json:"narrative"`
	Executives       []Executive  `json:"executives"`
	Funds            []Fund       `json:"funds"`
	Similarity       *float64     `json:"similarity"`
	DerivedFlags     DerivedFlags `json:"derivedFlags"`
	PrivateFundCount int          `json:"privateFundCount"`
	PrivateFundAum   float64      `json:"privateFundAum"`
}

// RetrievalMetadata is informational and attached to every response.
type RetrievalMetadata struct {
	SearchStrategy SearchStrategy `json:"searchStrategy"`
	QueryType      QueryType      `json:"queryType"`
	Confidence     float64        `json:"confidence"`
	DurationMs     int64          `json:"durationMs"`
	LLMDurationMs  int64          `json:"llmDurationMs"`
	RequestID      string         `json:"requestId,omitempty"`
	FallbackReason string         `json:"fallbackReason,omitempty"`
	// FundTypeCounts summarises candidate funds by canonical type.
	FundTypeCounts map[string]int `json:"fundTypeCounts,omitempty"`
	Degraded       []string       `json:"degraded,omitempty"`
}

// ResponseError is the client-visible error field of a SearchResponse.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchResponse is always well formed; Results is never nil.
type SearchResponse struct {
	Query    string            `json:"query"`
	Results  []Candidate       `json:"results"`
	Metadata RetrievalMetadata `json:"metadata"`
	Error    *ResponseError    `json:"error,omitempty"`
}

// Pointer helpers for optional filter fields.
func StringPtr(s string) *string { return &s }

func FloatPtr(f float64) *float64 { return &f }

func IntPtr(i int) *int { return &i }

func FundTypePtr(f CanonicalFundType) *CanonicalFundType { return &f }

func BoolPtr(b bool) *bool { return &b }
