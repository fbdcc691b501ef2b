package searchrias

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	commonerrors "ria-hunter/internal/common/errors"
	"ria-hunter/internal/common/logger"
	"ria-hunter/internal/common/validation"
	"ria-hunter/internal/models"
	executeretrieval "ria-hunter/internal/workers/ria-search/execute-retrieval"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		ConfidenceThreshold: 0.7,
		FallbackConfidence:  0.5,
		DefaultLimit:        10,
		MaxLimit:            50,
		LLMTimeout:          200 * time.Millisecond,
		EmbeddingTimeout:    time.Second,
		RequestTimeout:      5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func llmFilters() models.StructuredFilters {
	return models.StructuredFilters{
		Location:   models.Location{City: models.StringPtr("Chicago"), State: models.StringPtr("IL")},
		MinAum:     models.FloatPtr(1e9),
		QueryType:  models.QueryTypeGeneric,
		Confidence: 0.88,
	}
}

func oneRow() *models.RetrievalResult {
	return &models.RetrievalResult{
		Rows: []models.FirmRow{{CRD: "444", Name: "Lakeshore", City: "CHICAGO", State: "IL", Aum: 7e9}},
		Funds: map[string][]models.Fund{
			"444": {{Name: "Lakeshore Ventures II", Type: models.FundTypeVC, Aum: 3e8}},
		},
		SortBy: models.SortByAum,
	}
}

func realExecutor(t *testing.T) *executeretrieval.Executor {
	cfg := executeretrieval.LoadConfig()
	cfg.AuxTimeout = time.Second
	return executeretrieval.NewExecutor(cfg, newMemoryRepository(), nil, createTestLogger(t))
}

// ==========================
// Strategy Selection Tests
// ==========================

func TestPipeline_LLMSelected(t *testing.T) {
	llm := &fakeLLM{outcome: models.LLMSuccess(llmFilters(), 42)}
	retriever := &fakeRetriever{result: oneRow()}
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	p := NewPipeline(createTestConfig(), Dependencies{LLM: llm, Retriever: retriever, Embedder: embedder}, createTestLogger(t))

	resp := p.Search(context.Background(), models.SearchRequest{Text: "large advisers in Chicago over $1B"})

	require.Nil(t, resp.Error)
	assert.Equal(t, models.SearchStrategyLLM, resp.Metadata.SearchStrategy)
	assert.Equal(t, models.QueryTypeGeneric, resp.Metadata.QueryType)
	assert.Equal(t, 0.88, resp.Metadata.Confidence)
	assert.Equal(t, int64(42), resp.Metadata.LLMDurationMs)
	assert.Empty(t, resp.Metadata.FallbackReason)
	assert.NotEmpty(t, resp.Metadata.RequestID)

	assert.Equal(t, llmFilters(), retriever.filters)
	assert.Equal(t, []float32{0.1, 0.2}, retriever.vector)
	assert.Equal(t, 10, retriever.limit)

	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].DerivedFlags.HasVcActivity)
	assert.Equal(t, "large advisers in Chicago over $1B", resp.Query)
}

func TestPipeline_FallbackReasons(t *testing.T) {
	low := llmFilters()
	low.Confidence = 0.4

	tests := []struct {
		name       string
		llm        LLMDecomposer
		wantReason string
	}{
		{"low confidence", &fakeLLM{outcome: models.LLMSuccess(low, 10)}, "low_confidence"},
		{"invalid response", &fakeLLM{outcome: models.LLMFailure("invalid_response", 10)}, "invalid_response"},
		{"transport", &fakeLLM{outcome: models.LLMFailure("transport", 10)}, "transport"},
		{"no backend", nil, ReasonLLMDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever := &fakeRetriever{result: oneRow()}
			p := NewPipeline(createTestConfig(), Dependencies{LLM: tt.llm, Retriever: retriever}, createTestLogger(t))

			resp := p.Search(context.Background(), models.SearchRequest{Text: "hedge funds in Missouri"})

			require.Nil(t, resp.Error)
			assert.Equal(t, models.SearchStrategyFallback, resp.Metadata.SearchStrategy)
			assert.Equal(t, tt.wantReason, resp.Metadata.FallbackReason)
			assert.Equal(t, 0.5, resp.Metadata.Confidence)
			require.NotNil(t, retriever.filters.Location.State)
			assert.Equal(t, "MO", *retriever.filters.Location.State)
			assert.Nil(t, retriever.filters.MinAum)
		})
	}
}

// ==========================
// Scenario Tests
// ==========================

func TestPipeline_LLMTimeoutFallsBackWithResults(t *testing.T) {
	llm := &fakeLLM{delay: 5 * time.Second, outcome: models.LLMSuccess(llmFilters(), 0)}
	cfg := createTestConfig()
	cfg.LLMTimeout = 30 * time.Millisecond
	p := NewPipeline(cfg, Dependencies{LLM: llm, Retriever: realExecutor(t)}, createTestLogger(t))

	start := time.Now()
	resp := p.Search(context.Background(), models.SearchRequest{Text: "top 5 RIAs for private placements in St. Louis, MO"})

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Nil(t, resp.Error)
	assert.Equal(t, models.SearchStrategyFallback, resp.Metadata.SearchStrategy)
	assert.Equal(t, "timeout", resp.Metadata.FallbackReason)
	assert.Equal(t, models.QueryTypeTopNRanking, resp.Metadata.QueryType)

	require.Len(t, resp.Results, 5)
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].PrivateFundCount, resp.Results[i].PrivateFundCount)
	}
	assert.Equal(t, "107", resp.Results[0].ID)

	// narratives failed: every candidate keeps an empty narrative
	assert.Equal(t, []string{"narratives"}, resp.Metadata.Degraded)
	for _, c := range resp.Results {
		assert.Equal(t, "", c.Narrative)
		assert.True(t, c.DerivedFlags.HasVcActivity)
	}
	assert.Equal(t, map[string]int{"PE": 7}, resp.Metadata.FundTypeCounts)
}

func TestPipeline_DigitsOnlyLookup(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	p := NewPipeline(createTestConfig(), Dependencies{Retriever: realExecutor(t), Embedder: embedder}, createTestLogger(t))

	resp := p.Search(context.Background(), models.SearchRequest{Text: "12345678"})

	require.Nil(t, resp.Error)
	assert.Equal(t, models.QueryTypeFirmLookup, resp.Metadata.QueryType)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "12345678", resp.Results[0].ID)
	assert.Empty(t, resp.Results[0].Funds)
	assert.False(t, resp.Results[0].DerivedFlags.HasVcActivity)
	assert.Equal(t, 0, embedder.count())
}

func TestPipeline_Overrides(t *testing.T) {
	retriever := &fakeRetriever{result: oneRow()}
	p := NewPipeline(createTestConfig(), Dependencies{Retriever: retriever}, createTestLogger(t))

	resp := p.Search(context.Background(), models.SearchRequest{
		Text: "advisers in Missouri",
		Filters: &models.FilterOverrides{
			State:         models.StringPtr("IL"),
			MinAum:        models.FloatPtr(2e9),
			HasVcActivity: models.BoolPtr(false),
		},
		Limit: models.IntPtr(3),
	})

	require.Nil(t, resp.Error)
	assert.Equal(t, "IL", *retriever.filters.Location.State)
	assert.Equal(t, 2e9, *retriever.filters.MinAum)
	assert.Equal(t, 3, retriever.limit)
	// the only row has VC activity and is filtered out
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
}

// ==========================
// Error Handling Tests
// ==========================

func TestPipeline_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		req  models.SearchRequest
	}{
		{"empty text", models.SearchRequest{Text: ""}},
		{"whitespace text", models.SearchRequest{Text: "   \t"}},
		{"zero limit", models.SearchRequest{Text: "advisers", Limit: models.IntPtr(0)}},
		{"negative min aum", models.SearchRequest{Text: "advisers", Filters: &models.FilterOverrides{MinAum: models.FloatPtr(-1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{}
			retriever := &fakeRetriever{}
			p := NewPipeline(createTestConfig(), Dependencies{LLM: llm, Retriever: retriever}, createTestLogger(t))

			resp := p.Search(context.Background(), tt.req)

			require.NotNil(t, resp.Error)
			assert.Equal(t, string(commonerrors.ErrCodeQueryValidationFailed), resp.Error.Code)
			assert.NotNil(t, resp.Results)
			assert.Empty(t, resp.Results)
			assert.Equal(t, 0, llm.calls)
			assert.Equal(t, 0, retriever.calls)
		})
	}
}

func TestPipeline_RetrievalFailure(t *testing.T) {
	retriever := &fakeRetriever{err: commonerrors.NewRetrievalFailedError(errors.New("connection refused"))}
	p := NewPipeline(createTestConfig(), Dependencies{Retriever: retriever}, createTestLogger(t))

	resp := p.Search(context.Background(), models.SearchRequest{Text: "advisers in Ohio"})

	require.NotNil(t, resp.Error)
	assert.Equal(t, string(commonerrors.ErrCodeRetrievalFailed), resp.Error.Code)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Equal(t, models.SearchStrategyFallback, resp.Metadata.SearchStrategy)
	assert.Equal(t, "OH", *retriever.filters.Location.State)
}

func TestPipeline_UntypedRetrievalErrorIsRetrievalFailure(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("boom")}
	p := NewPipeline(createTestConfig(), Dependencies{Retriever: retriever}, createTestLogger(t))

	resp := p.Search(context.Background(), models.SearchRequest{Text: "advisers"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(commonerrors.ErrCodeRetrievalFailed), resp.Error.Code)
}

func TestPipeline_EmbeddingFailureDegrades(t *testing.T) {
	retriever := &fakeRetriever{result: oneRow()}
	embedder := &fakeEmbedder{err: errors.New("rate limited")}
	p := NewPipeline(createTestConfig(), Dependencies{Retriever: retriever, Embedder: embedder}, createTestLogger(t))

	resp := p.Search(context.Background(), models.SearchRequest{Text: "advisers focused on climate"})

	require.Nil(t, resp.Error)
	assert.Equal(t, []string{"embedding"}, resp.Metadata.Degraded)
	assert.Nil(t, retriever.vector)
	assert.Len(t, resp.Results, 1)
}

// ==========================
// Response Shape Tests
// ==========================

func TestPipeline_ResponseShape(t *testing.T) {
	p := NewPipeline(createTestConfig(), Dependencies{Retriever: realExecutor(t)}, createTestLogger(t))

	for _, text := range []string{"top 5 RIAs for private placements in St. Louis, MO", "12345678", ""} {
		resp := p.Search(context.Background(), models.SearchRequest{Text: text})

		raw, err := json.Marshal(resp)
		require.NoError(t, err)
		var doc interface{}
		require.NoError(t, json.Unmarshal(raw, &doc))

		result := validation.ValidateSearchResponse(doc)
		assert.True(t, result.Valid, "%q: %s", text, result.Error())
	}
}

func TestPipeline_ConcurrentRequests(t *testing.T) {
	p := NewPipeline(createTestConfig(), Dependencies{Retriever: realExecutor(t)}, createTestLogger(t))

	done := make(chan *models.SearchResponse, 8)
	for i := 0; i < 8; i++ {
		go func() {
			done <- p.Search(context.Background(), models.SearchRequest{Text: "top 5 RIAs for private placements in St. Louis, MO"})
		}()
	}
	ids := make(map[string]bool)
	for i := 0; i < 8; i++ {
		resp := <-done
		assert.Len(t, resp.Results, 5)
		ids[resp.Metadata.RequestID] = true
	}
	assert.Len(t, ids, 8)
}
