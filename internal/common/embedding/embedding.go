// Package embedding turns query text into fixed-length vectors for the
// narrative index.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sashabaranov/go-openai"

	"ria-hunter/internal/common/logger"
)

var ErrDimensionMismatch = errors.New("EMBEDDING_DIMENSION_MISMATCH")

// Embedder produces a vector for arbitrary text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

func NewOpenAIEmbedder(apiKey, baseURL, model string, dimensions int) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data")
	}

	vec := resp.Data[0].Embedding
	if e.dimensions > 0 && len(vec) != e.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), e.dimensions)
	}
	return vec, nil
}

// CachedEmbedder memoises another Embedder in Redis. Cache failures are
// logged and bypassed.
type CachedEmbedder struct {
	next   Embedder
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

func NewCachedEmbedder(next Embedder, rdb redis.Cmdable, ttl time.Duration, model string, log logger.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		prefix: "ria:embedding:" + model + ":",
		logger: log,
	}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.Key(text)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var vec []float32
		if jerr := json.Unmarshal(cached, &vec); jerr == nil && len(vec) > 0 {
			return vec, nil
		}
		c.logger.Warn("discarding corrupt cached embedding", map[string]interface{}{"key": key})
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("embedding cache read failed", map[string]interface{}{"error": err.Error()})
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if payload, jerr := json.Marshal(vec); jerr == nil {
		if serr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.logger.Warn("embedding cache write failed", map[string]interface{}{"error": serr.Error()})
		}
	}
	return vec, nil
}

// Key is the cache key for text.
func (c *CachedEmbedder) Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}
