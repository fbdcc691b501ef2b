// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml and
// applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	if root := findProjectRoot(); root != "" {
		v.AddConfigPath(filepath.Join(root, "configs"))
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// setDefaults registers defaults for keys whose zero value is meaningful.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ria-hunter")
	v.SetDefault("app.http_address", ":8080")
	v.SetDefault("camunda.broker_address", "localhost:26500")
	v.SetDefault("camunda.use_plaintext", true)
	v.SetDefault("camunda.search_process_id", "ria-search")

	v.SetDefault("search.confidence_threshold", 0.7)
	v.SetDefault("search.fallback_confidence", 0.5)
	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.max_limit", 50)
	v.SetDefault("search.llm_timeout", 4000)
	v.SetDefault("search.llm_max_retries", 1)
	v.SetDefault("search.llm_backend", LLMBackendGenAI)
	v.SetDefault("search.vector_backend", VectorBackendElasticsearch)
	v.SetDefault("search.vector_candidates", 50)
	v.SetDefault("search.candidate_pool", 200)
	v.SetDefault("search.aux_timeout", 3000)
	v.SetDefault("search.request_timeout", 15000)

	v.SetDefault("embedding.enabled", true)
	v.SetDefault("embedding.dimensions", 1536)
	v.SetDefault("embedding.cache_ttl", 86400000)
	v.SetDefault("embedding.timeout", 3000)

	v.SetDefault("registry.path", "configs/activity-registry.json")
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL != "" {
		cfg.Database.Elasticsearch.Addresses = []string{cfg.Database.Elasticsearch.URL}
	}
	if cfg.Database.Elasticsearch.NarrativeIndex == "" {
		cfg.Database.Elasticsearch.NarrativeIndex = "ria_narratives"
	}
	if cfg.Database.Elasticsearch.EmbeddingField == "" {
		cfg.Database.Elasticsearch.EmbeddingField = "embedding"
	}

	if cfg.Database.Qdrant.Port == 0 {
		cfg.Database.Qdrant.Port = 6334
	}
	if cfg.Database.Qdrant.Collection == "" {
		cfg.Database.Qdrant.Collection = "ria_narratives"
	}
	if cfg.Database.Qdrant.Timeout == 0 {
		cfg.Database.Qdrant.Timeout = 5000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.APIs.GenAI.Timeout == 0 {
		cfg.APIs.GenAI.Timeout = cfg.Search.LLMTimeout
	}
	if cfg.APIs.OpenAI.ChatModel == "" {
		cfg.APIs.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if cfg.APIs.OpenAI.EmbeddingModel == "" {
		cfg.APIs.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
}

// overrideEmptyConfig fills secrets from well-known environment variables.
func overrideEmptyConfig(cfg *Config) {
	fill := func(dst *string, env string) {
		if *dst == "" {
			if val := os.Getenv(env); val != "" {
				*dst = val
			}
		}
	}

	fill(&cfg.APIs.GenAI.APIKey, "GENAI_API_KEY")
	fill(&cfg.APIs.OpenAI.APIKey, "OPENAI_API_KEY")
	fill(&cfg.Database.Postgres.User, "DB_USER")
	fill(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	fill(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	fill(&cfg.Database.Qdrant.APIKey, "QDRANT_API_KEY")
	fill(&cfg.Database.Elasticsearch.Username, "ELASTICSEARCH_USERNAME")
	fill(&cfg.Database.Elasticsearch.Password, "ELASTICSEARCH_PASSWORD")
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	s := cfg.Search
	if s.ConfidenceThreshold < 0 || s.ConfidenceThreshold > 1 {
		return fmt.Errorf("search.confidence_threshold must be within [0,1], got %v", s.ConfidenceThreshold)
	}
	if s.FallbackConfidence < 0 || s.FallbackConfidence > 1 {
		return fmt.Errorf("search.fallback_confidence must be within [0,1], got %v", s.FallbackConfidence)
	}
	if s.DefaultLimit <= 0 {
		return fmt.Errorf("search.default_limit must be positive")
	}
	if s.MaxLimit < s.DefaultLimit {
		return fmt.Errorf("search.max_limit (%d) must be >= search.default_limit (%d)", s.MaxLimit, s.DefaultLimit)
	}
	if s.LLMMaxRetries < 0 || s.LLMMaxRetries > 1 {
		return fmt.Errorf("search.llm_max_retries must be 0 or 1")
	}
	if s.CandidatePool < s.MaxLimit {
		return fmt.Errorf("search.candidate_pool (%d) must be >= search.max_limit (%d)", s.CandidatePool, s.MaxLimit)
	}
	if s.LLMTimeout <= 0 {
		return fmt.Errorf("search.llm_timeout must be positive")
	}

	switch s.LLMBackend {
	case LLMBackendGenAI, LLMBackendNone:
	case LLMBackendOpenAI:
		if cfg.APIs.OpenAI.APIKey == "" {
			return fmt.Errorf("apis.openai.api_key is required when search.llm_backend=%s", LLMBackendOpenAI)
		}
	default:
		return fmt.Errorf("unknown search.llm_backend %q", s.LLMBackend)
	}

	switch s.VectorBackend {
	case VectorBackendElasticsearch:
		if cfg.Database.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required")
		}
	case VectorBackendQdrant:
		if cfg.Database.Qdrant.Host == "" {
			return fmt.Errorf("database.qdrant.host is required")
		}
	case VectorBackendNone:
	default:
		return fmt.Errorf("unknown search.vector_backend %q", s.VectorBackend)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
