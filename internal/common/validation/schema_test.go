package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ria-hunter/internal/models"
)

func decode(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

// ==========================
// Decomposition
// ==========================

func TestValidateDecomposition(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{
			name:  "complete payload",
			raw:   `{"location":{"city":"St. Louis","state":"MO"},"fundTypeIntent":"PE","minAum":null,"queryType":"TOP_N_RANKING","confidence":0.92,"topN":5}`,
			valid: true,
		},
		{
			name:  "null location parts",
			raw:   `{"location":{"city":null,"state":null},"fundTypeIntent":null,"queryType":"GENERIC","confidence":0.8}`,
			valid: true,
		},
		{
			name:  "missing confidence",
			raw:   `{"location":{},"queryType":"GENERIC"}`,
			valid: false,
		},
		{
			name:  "confidence above one",
			raw:   `{"location":{},"queryType":"GENERIC","confidence":1.2}`,
			valid: false,
		},
		{
			name:  "negative confidence",
			raw:   `{"location":{},"queryType":"GENERIC","confidence":-0.1}`,
			valid: false,
		},
		{
			name:  "unknown query type",
			raw:   `{"location":{},"queryType":"SEMANTIC","confidence":0.9}`,
			valid: false,
		},
		{
			name:  "unknown fund type",
			raw:   `{"location":{},"fundTypeIntent":"Crypto","queryType":"GENERIC","confidence":0.9}`,
			valid: false,
		},
		{
			name:  "non numeric crd",
			raw:   `{"location":{},"queryType":"FIRM_LOOKUP","confidence":0.9,"crd":"abc"}`,
			valid: false,
		},
		{
			name:  "missing location",
			raw:   `{"queryType":"GENERIC","confidence":0.9}`,
			valid: false,
		},
		{
			name:  "query type omitted",
			raw:   `{"location":{"state":"MO"},"confidence":0.9}`,
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateDecomposition(decode(t, tt.raw))
			assert.Equal(t, tt.valid, result.Valid, result.GetErrorMessages())
			if !tt.valid {
				assert.NotEmpty(t, result.Errors)
				assert.NotEmpty(t, result.Error())
			}
		})
	}
}

func TestValidateDecomposition_FieldReported(t *testing.T) {
	result := ValidateDecomposition(decode(t, `{"location":{},"queryType":"GENERIC","confidence":3}`))
	require.False(t, result.Valid)
	assert.True(t, result.HasErrors("confidence"))
}

// ==========================
// Search request / response
// ==========================

func TestValidateSearchRequest(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"text only", `{"text":"top 5 RIAs in St. Louis"}`, true},
		{"with overrides", `{"text":"vc firms","filters":{"state":"MO","minAum":1000000,"hasVcActivity":true},"limit":20}`, true},
		{"missing text", `{"limit":5}`, false},
		{"empty text", `{"text":""}`, false},
		{"blank text", `{"text":"   "}`, false},
		{"zero limit", `{"text":"rias","limit":0}`, false},
		{"negative min aum", `{"text":"rias","filters":{"minAum":-5}}`, false},
		{"unknown override", `{"text":"rias","filters":{"zip":"63101"}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSearchRequest(decode(t, tt.raw))
			assert.Equal(t, tt.valid, result.Valid, result.GetErrorMessages())
		})
	}
}

func TestValidateSearchResponse(t *testing.T) {
	resp := &models.SearchResponse{
		Query: "rias in MO",
		Results: []models.Candidate{{
			ID:         "123",
			Name:       "Example Advisers",
			City:       "ST. LOUIS",
			State:      "MO",
			Executives: []models.Executive{},
			Funds:      []models.Fund{},
		}},
		Metadata: models.RetrievalMetadata{
			SearchStrategy: models.SearchStrategyFallback,
			QueryType:      models.QueryTypeGeneric,
			Confidence:     0.5,
			DurationMs:     12,
		},
	}

	result := ValidateSearchResponse(resp)
	assert.True(t, result.Valid, result.GetErrorMessages())

	resp.Metadata.SearchStrategy = "HYBRID"
	assert.False(t, ValidateSearchResponse(resp).Valid)
}

func TestValidateDocument_EmptySchema(t *testing.T) {
	assert.True(t, ValidateDocument(nil, map[string]interface{}{"a": 1}).Valid)
}

func TestValidateActivityNaming(t *testing.T) {
	assert.NoError(t, ValidateActivityNaming("ria.search.decompose"))
	assert.Error(t, ValidateActivityNaming("ria-search"))
}
