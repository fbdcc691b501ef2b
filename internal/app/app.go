// Package app assembles stores, backends and worker handlers from the
// loaded configuration. It is shared by the worker manager and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"ria-hunter/internal/common/config"
	"ria-hunter/internal/common/database"
	"ria-hunter/internal/common/embedding"
	"ria-hunter/internal/common/logger"
	"ria-hunter/internal/common/observability"
	qe "ria-hunter/internal/workers/data-access/query-elasticsearch"
	esqueries "ria-hunter/internal/workers/data-access/query-elasticsearch/queries"
	qp "ria-hunter/internal/workers/data-access/query-postgresql"
	pgqueries "ria-hunter/internal/workers/data-access/query-postgresql/queries"
	dql "ria-hunter/internal/workers/ria-search/decompose-query-llm"
	dqr "ria-hunter/internal/workers/ria-search/decompose-query-rules"
	er "ria-hunter/internal/workers/ria-search/execute-retrieval"
	mrc "ria-hunter/internal/workers/ria-search/merge-rank-candidates"
	sr "ria-hunter/internal/workers/ria-search/search-rias"
	ss "ria-hunter/internal/workers/ria-search/select-strategy"
)

// RetryPolicy controls how store connections are retried at startup.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// RetryWithBackoff runs operation up to maxRetries times, doubling the delay
// between attempts.
func RetryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Stores holds the connected backends. Nil fields were not required by the
// configuration or, for Redis, could not be reached.
type Stores struct {
	Postgres *database.PostgresClient
	Elastic  *database.ElasticsearchClient
	Redis    *database.RedisClient
	Qdrant   *database.QdrantClient
}

// NeedsElasticsearch reports whether any enabled component reads the index.
func NeedsElasticsearch(cfg *config.Config) bool {
	return cfg.Search.VectorBackend == config.VectorBackendElasticsearch ||
		config.IsWorkerEnabled(cfg, qe.TaskType)
}

// Connect opens every store the configuration requires. PostgreSQL is always
// required; the Redis embedding cache is optional.
func Connect(ctx context.Context, cfg *config.Config, policy RetryPolicy, log logger.Logger) (*Stores, error) {
	s := &Stores{}

	err := RetryWithBackoff(func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		s.Postgres = pg
		return nil
	}, policy.Attempts, policy.Delay, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected successfully", nil)

	if NeedsElasticsearch(cfg) {
		err = RetryWithBackoff(func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			s.Elastic = es
			return nil
		}, policy.Attempts, policy.Delay, log, "Elasticsearch connection")
		if err != nil {
			s.Close()
			return nil, err
		}
		log.Info("Elasticsearch connected successfully", nil)
	}

	if cfg.Search.VectorBackend == config.VectorBackendQdrant {
		err = RetryWithBackoff(func() error {
			q, err := database.NewQdrant(cfg.Database.Qdrant)
			if err != nil {
				return err
			}
			if err := q.Ping(ctx); err != nil {
				q.Close()
				return err
			}
			s.Qdrant = q
			return nil
		}, policy.Attempts, policy.Delay, log, "Qdrant connection")
		if err != nil {
			s.Close()
			return nil, err
		}
		log.Info("Qdrant connected successfully", map[string]interface{}{"address": cfg.Database.Qdrant.Address()})
	}

	if cfg.Embedding.Enabled && cfg.Database.Redis.Address != "" {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err == nil {
			err = rdb.Ping(ctx)
		}
		if err != nil {
			log.Warn("embedding cache unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
		} else {
			s.Redis = rdb
			log.Info("Redis connected successfully", nil)
		}
	}

	return s, nil
}

// Close releases every open store.
func (s *Stores) Close() {
	if s == nil {
		return
	}
	if s.Postgres != nil {
		s.Postgres.Close()
	}
	if s.Redis != nil {
		s.Redis.Close()
	}
	if s.Qdrant != nil {
		s.Qdrant.Close()
	}
}

// HealthCheck pings every open store.
func (s *Stores) HealthCheck(ctx context.Context) map[string]error {
	out := make(map[string]error)
	if s.Postgres != nil {
		out["postgres"] = s.Postgres.Ping(ctx)
	}
	if s.Elastic != nil {
		out["elasticsearch"] = s.Elastic.Ping(ctx)
	}
	if s.Redis != nil {
		out["redis"] = s.Redis.Ping(ctx)
	}
	if s.Qdrant != nil {
		out["qdrant"] = s.Qdrant.Ping(ctx)
	}
	return out
}

// ==========================
// Backends
// ==========================

// NewLLMBackend returns nil when the LLM decomposer is disabled.
func NewLLMBackend(cfg *config.Config) (dql.Backend, error) {
	if cfg.Search.LLMBackend == config.LLMBackendNone {
		return nil, nil
	}
	return dql.NewBackend(LLMConfig(cfg))
}

// NewVectorIndex returns nil when vector similarity is disabled.
func NewVectorIndex(cfg *config.Config, s *Stores) (er.VectorIndex, error) {
	switch cfg.Search.VectorBackend {
	case config.VectorBackendElasticsearch:
		if s == nil || s.Elastic == nil {
			return nil, fmt.Errorf("vector backend %s is not connected", cfg.Search.VectorBackend)
		}
		es := cfg.Database.Elasticsearch
		return esqueries.NewNarrativeIndex(s.Elastic.Client, es.NarrativeIndex, es.EmbeddingField), nil
	case config.VectorBackendQdrant:
		if s == nil || s.Qdrant == nil {
			return nil, fmt.Errorf("vector backend %s is not connected", cfg.Search.VectorBackend)
		}
		return s.Qdrant, nil
	}
	return nil, nil
}

// NewEmbedder returns nil when embeddings are disabled or have nowhere to go.
// A connected Redis wraps the provider in a cache.
func NewEmbedder(cfg *config.Config, s *Stores, log logger.Logger) embedding.Embedder {
	if !cfg.Embedding.Enabled || cfg.Search.VectorBackend == config.VectorBackendNone || cfg.APIs.OpenAI.APIKey == "" {
		return nil
	}

	model := cfg.APIs.OpenAI.EmbeddingModel
	var e embedding.Embedder = embedding.NewOpenAIEmbedder(cfg.APIs.OpenAI.APIKey, cfg.APIs.OpenAI.BaseURL, model, cfg.Embedding.Dimensions)
	if s != nil && s.Redis != nil {
		e = embedding.NewCachedEmbedder(e, s.Redis.GetClient(), config.GetDuration(cfg.Embedding.CacheTTL), model, log)
	}
	return e
}

// NewSearchDependencies wires the collaborators of the search pipeline.
func NewSearchDependencies(cfg *config.Config, s *Stores, obs *observability.Observability, log logger.Logger) (sr.Dependencies, error) {
	if s == nil || s.Postgres == nil {
		return sr.Dependencies{}, fmt.Errorf("postgres is required for retrieval")
	}

	index, err := NewVectorIndex(cfg, s)
	if err != nil {
		return sr.Dependencies{}, err
	}

	deps := sr.Dependencies{
		Retriever:     er.NewExecutor(RetrievalConfig(cfg), pgqueries.NewRepository(s.Postgres.DB), index, log),
		Embedder:      NewEmbedder(cfg, s, log),
		Observability: obs,
	}

	backend, err := NewLLMBackend(cfg)
	if err != nil {
		return sr.Dependencies{}, err
	}
	if backend != nil {
		llmCfg := LLMConfig(cfg)
		deps.LLM = dql.NewDecomposer(backend, llmCfg.Timeout, llmCfg.MaxRetries)
	}
	return deps, nil
}

// ==========================
// Worker configuration
// ==========================

func durationOr(ms int, def time.Duration) time.Duration {
	if ms > 0 {
		return config.GetDuration(ms)
	}
	return def
}

func workerTimeout(cfg *config.Config, taskType string, def time.Duration) time.Duration {
	return durationOr(config.GetWorkerConfig(cfg, taskType).Timeout, def)
}

func SearchConfig(cfg *config.Config) *sr.Config {
	d := sr.LoadConfig()
	return &sr.Config{
		ConfidenceThreshold: cfg.Search.ConfidenceThreshold,
		FallbackConfidence:  cfg.Search.FallbackConfidence,
		DefaultLimit:        cfg.Search.DefaultLimit,
		MaxLimit:            cfg.Search.MaxLimit,
		LLMTimeout:          durationOr(cfg.Search.LLMTimeout, d.LLMTimeout),
		EmbeddingTimeout:    durationOr(cfg.Embedding.Timeout, d.EmbeddingTimeout),
		RequestTimeout:      durationOr(cfg.Search.RequestTimeout, d.RequestTimeout),
	}
}

func RulesConfig(cfg *config.Config) *dqr.Config {
	return &dqr.Config{
		FallbackConfidence: cfg.Search.FallbackConfidence,
		Timeout:            workerTimeout(cfg, dqr.TaskType, dqr.LoadConfig().Timeout),
	}
}

func LLMConfig(cfg *config.Config) *dql.Config {
	d := dql.LoadConfig()
	return &dql.Config{
		Backend:       cfg.Search.LLMBackend,
		GenAIBaseURL:  cfg.APIs.GenAI.BaseURL,
		GenAIAPIKey:   cfg.APIs.GenAI.APIKey,
		OpenAIAPIKey:  cfg.APIs.OpenAI.APIKey,
		OpenAIBaseURL: cfg.APIs.OpenAI.BaseURL,
		ChatModel:     cfg.APIs.OpenAI.ChatModel,
		Timeout:       durationOr(cfg.APIs.GenAI.Timeout, durationOr(cfg.Search.LLMTimeout, d.Timeout)),
		MaxRetries:    cfg.Search.LLMMaxRetries,
	}
}

func SelectConfig(cfg *config.Config) *ss.Config {
	return &ss.Config{
		ConfidenceThreshold: cfg.Search.ConfidenceThreshold,
		Timeout:             workerTimeout(cfg, ss.TaskType, ss.LoadConfig().Timeout),
	}
}

func RetrievalConfig(cfg *config.Config) *er.Config {
	d := er.LoadConfig()
	return &er.Config{
		DefaultLimit:     cfg.Search.DefaultLimit,
		MaxLimit:         cfg.Search.MaxLimit,
		CandidatePool:    cfg.Search.CandidatePool,
		VectorCandidates: cfg.Search.VectorCandidates,
		AuxTimeout:       durationOr(cfg.Search.AuxTimeout, d.AuxTimeout),
		Timeout:          workerTimeout(cfg, er.TaskType, d.Timeout),
	}
}

func MergeConfig(cfg *config.Config) *mrc.Config {
	return &mrc.Config{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
		Timeout:      workerTimeout(cfg, mrc.TaskType, mrc.LoadConfig().Timeout),
	}
}

func PostgresWorkerConfig(cfg *config.Config) *qp.Config {
	return &qp.Config{Timeout: workerTimeout(cfg, qp.TaskType, qp.LoadConfig().Timeout)}
}

func ElasticsearchWorkerConfig(cfg *config.Config) *qe.Config {
	return &qe.Config{
		Timeout:        workerTimeout(cfg, qe.TaskType, qe.LoadConfig().Timeout),
		DefaultIndex:   cfg.Database.Elasticsearch.NarrativeIndex,
		EmbeddingField: cfg.Database.Elasticsearch.EmbeddingField,
	}
}
