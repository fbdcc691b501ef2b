// internal/models/query_types.go
package models

// QueryType is the intent a decomposer assigns to a raw query.
type QueryType string

const (
	QueryTypeFirmLookup     QueryType = "FIRM_LOOKUP"
	QueryTypeTopNRanking    QueryType = "TOP_N_RANKING"
	QueryTypeActivityFilter QueryType = "ACTIVITY_FILTER"
	QueryTypeGeneric        QueryType = "GENERIC"
)

// AllQueryTypes lists the closed enum in declaration order.
var AllQueryTypes = []QueryType{
	QueryTypeFirmLookup,
	QueryTypeTopNRanking,
	QueryTypeActivityFilter,
	QueryTypeGeneric,
}

func (q QueryType) IsValid() bool {
	for _, t := range AllQueryTypes {
		if q == t {
			return true
		}
	}
	return false
}

// SearchStrategy records which decomposer drove retrieval.
type SearchStrategy string

const (
	SearchStrategyLLM      SearchStrategy = "LLM"
	SearchStrategyFallback SearchStrategy = "FALLBACK"
)

// DecompositionSource identifies the producer of a StructuredFilters value.
type DecompositionSource string

const (
	SourceLLM      DecompositionSource = "LLM"
	SourceFallback DecompositionSource = "FALLBACK"
)
