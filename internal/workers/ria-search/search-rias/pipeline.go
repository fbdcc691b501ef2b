// internal/workers/ria-search/search-rias/pipeline.go
package searchrias

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"ria-hunter/internal/common/embedding"
	commonerrors "ria-hunter/internal/common/errors"
	"ria-hunter/internal/common/logger"
	"ria-hunter/internal/common/metrics"
	"ria-hunter/internal/common/observability"
	"ria-hunter/internal/common/validation"
	"ria-hunter/internal/models"
	decomposequeryllm "ria-hunter/internal/workers/ria-search/decompose-query-llm"
	decomposequeryrules "ria-hunter/internal/workers/ria-search/decompose-query-rules"
	executeretrieval "ria-hunter/internal/workers/ria-search/execute-retrieval"
	mergerankcandidates "ria-hunter/internal/workers/ria-search/merge-rank-candidates"
	selectstrategy "ria-hunter/internal/workers/ria-search/select-strategy"
)

// ReasonLLMDisabled is the fallback reason when no LLM backend is wired.
const ReasonLLMDisabled = "disabled"

const degradedEmbedding = "embedding"

// LLMDecomposer is satisfied by *decomposequeryllm.Decomposer.
type LLMDecomposer interface {
	Attempt(ctx context.Context, text string) models.LLMOutcome
}

// Retriever is satisfied by *executeretrieval.Executor.
type Retriever interface {
	Retrieve(ctx context.Context, filters models.StructuredFilters, vector []float32, limit int) (*models.RetrievalResult, error)
}

// Dependencies are the collaborators of a Pipeline. LLM, Embedder and
// Observability may be nil.
type Dependencies struct {
	LLM           LLMDecomposer
	Retriever     Retriever
	Embedder      embedding.Embedder
	Observability *observability.Observability
}

// Pipeline answers one search request end to end. It holds no per-request
// state and is safe for concurrent use.
type Pipeline struct {
	config    *Config
	llm       LLMDecomposer
	selector  *selectstrategy.Selector
	retriever Retriever
	embedder  embedding.Embedder
	obs       *observability.Observability
	logger    logger.Logger
	newID     func() string
}

func NewPipeline(config *Config, deps Dependencies, log logger.Logger) *Pipeline {
	return &Pipeline{
		config:    config,
		llm:       deps.LLM,
		selector:  selectstrategy.NewSelector(config.ConfidenceThreshold),
		retriever: deps.Retriever,
		embedder:  deps.Embedder,
		obs:       deps.Observability,
		logger:    log,
		newID:     func() string { return uuid.New().String() },
	}
}

// Search always returns a well-formed response. Validation and retrieval
// failures are reported in Error with an empty result list.
func (p *Pipeline) Search(ctx context.Context, req models.SearchRequest) *models.SearchResponse {
	start := time.Now()
	resp := &models.SearchResponse{
		Query:   req.Text,
		Results: []models.Candidate{},
		Metadata: models.RetrievalMetadata{
			SearchStrategy: models.SearchStrategyFallback,
			QueryType:      models.QueryTypeGeneric,
			RequestID:      p.newID(),
		},
	}
	log := p.logger.WithFields(map[string]interface{}{"requestId": resp.Metadata.RequestID})

	ctx, span := p.obs.StartSpan(ctx, "search-rias.search", attribute.String("request.id", resp.Metadata.RequestID))
	defer span.End()

	if stdErr := ValidateRequest(req); stdErr != nil {
		log.Warn("search request rejected", map[string]interface{}{"error": stdErr.Details})
		return p.finish(ctx, resp, start, stdErr)
	}

	if p.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.RequestTimeout)
		defer cancel()
	}

	selection, llm, vector, degraded := p.decompose(ctx, req.Text)
	filters := selectstrategy.ApplyOverrides(selection.Filters, req.Filters)

	resp.Metadata.SearchStrategy = selection.Strategy
	resp.Metadata.QueryType = filters.QueryType
	resp.Metadata.Confidence = filters.Confidence
	resp.Metadata.FallbackReason = selection.Reason
	resp.Metadata.LLMDurationMs = llm.DurationMs
	resp.Metadata.Degraded = degraded

	metrics.SearchRequests.WithLabelValues(string(selection.Strategy), string(filters.QueryType)).Inc()
	span.SetAttributes(
		attribute.String("search.strategy", string(selection.Strategy)),
		attribute.String("search.query_type", string(filters.QueryType)),
	)

	requested := 0
	if req.Limit != nil {
		requested = *req.Limit
	}
	limit := executeretrieval.EffectiveLimit(requested, filters.TopN, p.config.DefaultLimit, p.config.MaxLimit)

	rctx, rspan := p.obs.StartSpan(ctx, "search-rias.retrieve")
	result, err := p.retriever.Retrieve(rctx, filters, vector, limit)
	rspan.End()
	if err != nil {
		stdErr := commonerrors.AsStandardError(err)
		if stdErr.Code == commonerrors.ErrCodeInternal {
			stdErr = commonerrors.NewRetrievalFailedError(err)
		}
		log.Error("retrieval failed", map[string]interface{}{
			"searchStrategy": selection.Strategy,
			"queryType":      filters.QueryType,
			"error":          err.Error(),
		})
		return p.finish(ctx, resp, start, stdErr)
	}

	opts := mergerankcandidates.Options{Limit: limit}
	if req.Filters != nil {
		opts.HasVcActivity = req.Filters.HasVcActivity
	}
	resp.Results = mergerankcandidates.Merge(*result, opts)
	resp.Metadata.FundTypeCounts = result.FundTypeCounts
	resp.Metadata.Degraded = mergeDegraded(resp.Metadata.Degraded, result.Degraded)

	p.finish(ctx, resp, start, nil)
	log.Info("search complete", map[string]interface{}{
		"searchStrategy": resp.Metadata.SearchStrategy,
		"queryType":      resp.Metadata.QueryType,
		"confidence":     resp.Metadata.Confidence,
		"results":        len(resp.Results),
		"durationMs":     resp.Metadata.DurationMs,
	})
	return resp
}

// decompose runs the fallback eagerly, then the LLM attempt and the query
// embedding concurrently. The LLM is abandoned after LLMTimeout.
func (p *Pipeline) decompose(ctx context.Context, text string) (models.Selection, models.LLMOutcome, []float32, []string) {
	ctx, span := p.obs.StartSpan(ctx, "search-rias.decompose")
	defer span.End()

	ruleStart := time.Now()
	fallback := decomposequeryrules.Decompose(text, p.config.FallbackConfidence)
	metrics.ObserveSince(metrics.DecompositionDuration, string(models.SourceFallback), ruleStart)

	vectorCh := make(chan []float32, 1)
	var embedErr error
	if p.embedder != nil && fallback.CRD == nil {
		go func() {
			ectx := ctx
			if p.config.EmbeddingTimeout > 0 {
				var cancel context.CancelFunc
				ectx, cancel = context.WithTimeout(ctx, p.config.EmbeddingTimeout)
				defer cancel()
			}
			vec, err := p.embedder.Embed(ectx, text)
			if err != nil {
				embedErr = err
			}
			vectorCh <- vec
		}()
	} else {
		vectorCh <- nil
	}

	llm := p.attemptLLM(ctx, text)
	vector := <-vectorCh

	var degraded []string
	if embedErr != nil {
		degraded = append(degraded, degradedEmbedding)
		p.logger.Warn("query embedding failed", map[string]interface{}{
			"error": commonerrors.NewEmbeddingFailedError(embedErr).Details,
		})
	}

	return p.selector.Select(llm, fallback), llm, vector, degraded
}

func (p *Pipeline) attemptLLM(ctx context.Context, text string) models.LLMOutcome {
	if p.llm == nil {
		return models.LLMFailure(ReasonLLMDisabled, 0)
	}

	lctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	done := make(chan models.LLMOutcome, 1)
	go func() {
		done <- p.llm.Attempt(lctx, text)
	}()

	var timeout <-chan time.Time
	if p.config.LLMTimeout > 0 {
		timer := time.NewTimer(p.config.LLMTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case outcome := <-done:
		return outcome
	case <-timeout:
		metrics.LLMFailures.WithLabelValues(decomposequeryllm.ReasonTimeout).Inc()
		return models.LLMFailure(decomposequeryllm.ReasonTimeout, time.Since(start).Milliseconds())
	case <-ctx.Done():
		return models.LLMFailure(decomposequeryllm.ReasonCanceled, time.Since(start).Milliseconds())
	}
}

func (p *Pipeline) finish(ctx context.Context, resp *models.SearchResponse, start time.Time, stdErr *commonerrors.StandardError) *models.SearchResponse {
	if stdErr != nil {
		resp.Results = []models.Candidate{}
		resp.Error = &models.ResponseError{Code: string(stdErr.Code), Message: stdErr.Message}
	}
	elapsed := time.Since(start)
	resp.Metadata.DurationMs = elapsed.Milliseconds()
	p.obs.RecordSearch(ctx, string(resp.Metadata.SearchStrategy), string(resp.Metadata.QueryType), elapsed)
	return resp
}

// ValidateRequest checks an inbound submission against the request schema.
func ValidateRequest(req models.SearchRequest) *commonerrors.StandardError {
	raw, err := json.Marshal(req)
	if err != nil {
		return commonerrors.NewQueryValidationFailedError(err.Error())
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return commonerrors.NewQueryValidationFailedError(err.Error())
	}
	if result := validation.ValidateSearchRequest(doc); !result.Valid {
		return commonerrors.NewQueryValidationFailedError(result.Error())
	}
	return nil
}

func mergeDegraded(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := append(append([]string{}, a...), b...)
	sort.Strings(out)
	return out
}
