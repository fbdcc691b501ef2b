package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
database:
  postgres:
    host: db.internal
    database: ria
    user: ${TEST_RIA_DB_USER}
  elasticsearch:
    url: http://es:9200
workers:
  search-rias:
    enabled: true
`

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("TEST_RIA_DB_USER", "ria_reader")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "ria_reader", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, []string{"http://es:9200"}, cfg.Database.Elasticsearch.Addresses)
	assert.Equal(t, "ria_narratives", cfg.Database.Elasticsearch.NarrativeIndex)

	assert.Equal(t, 0.7, cfg.Search.ConfidenceThreshold)
	assert.Equal(t, 0.5, cfg.Search.FallbackConfidence)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 50, cfg.Search.MaxLimit)
	assert.Equal(t, 1, cfg.Search.LLMMaxRetries)
	assert.Equal(t, LLMBackendGenAI, cfg.Search.LLMBackend)
	assert.Equal(t, VectorBackendElasticsearch, cfg.Search.VectorBackend)
	assert.Equal(t, 4000, cfg.APIs.GenAI.Timeout)

	w := GetWorkerConfig(cfg, "search-rias")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "not-configured"))
}

func TestLoadFromFile_Validation(t *testing.T) {
	t.Setenv("TEST_RIA_DB_USER", "ria_reader")

	tests := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{"threshold above one", "search:\n  confidence_threshold: 1.5\n", "confidence_threshold"},
		{"limit above max", "search:\n  default_limit: 80\n  max_limit: 50\n", "max_limit"},
		{"too many llm retries", "search:\n  llm_max_retries: 3\n", "llm_max_retries"},
		{"unknown vector backend", "search:\n  vector_backend: faiss\n", "vector_backend"},
		{"openai without key", "search:\n  llm_backend: openai\n", "apis.openai.api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "")
			_, err := LoadFromFile(writeConfig(t, minimalConfig+tt.extra))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingPostgres(t *testing.T) {
	t.Setenv("DB_USER", "")
	_, err := LoadFromFile(writeConfig(t, "search:\n  vector_backend: none\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.postgres.host")
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("TEST_RIA_DB_USER", "ria_reader")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SEARCH_MAX_LIMIT", "40")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+"search:\n  llm_backend: openai\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.APIs.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.APIs.OpenAI.ChatModel)
	assert.Equal(t, 40, cfg.Search.MaxLimit)
}

func TestLoadFromFile_QdrantRequiresHost(t *testing.T) {
	t.Setenv("TEST_RIA_DB_USER", "ria_reader")

	_, err := LoadFromFile(writeConfig(t, minimalConfig+"search:\n  vector_backend: qdrant\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.qdrant.host")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
