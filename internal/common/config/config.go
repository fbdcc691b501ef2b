// internal/common/config/config.go
package config

import (
	"fmt"
	"net"
	"strconv"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	APIs          APIsConfig              `mapstructure:"apis"`
	Search        SearchConfig            `mapstructure:"search"`
	Embedding     EmbeddingConfig         `mapstructure:"embedding"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Registry      RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPAddress string `mapstructure:"http_address"`
}

type CamundaConfig struct {
	BrokerAddress   string `mapstructure:"broker_address"`
	MaxJobsActive   int    `mapstructure:"max_jobs_active"`
	Timeout         int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout  int    `mapstructure:"request_timeout"` // milliseconds
	SearchProcessID string `mapstructure:"search_process_id"`
	UsePlaintext    bool   `mapstructure:"use_plaintext"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Qdrant        QdrantConfig        `mapstructure:"qdrant"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses      []string `mapstructure:"addresses"`
	Username       string   `mapstructure:"username"`
	Password       string   `mapstructure:"password"`
	URL            string   `mapstructure:"url"`
	NarrativeIndex string   `mapstructure:"narrative_index"`
	EmbeddingField string   `mapstructure:"embedding_field"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type QdrantConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	APIKey     string `mapstructure:"api_key"`
	UseTLS     bool   `mapstructure:"use_tls"`
	Collection string `mapstructure:"collection"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
}

// Address returns host:port for logging.
func (q QdrantConfig) Address() string {
	return net.JoinHostPort(q.Host, strconv.Itoa(q.Port))
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"genai"`

	OpenAI struct {
		APIKey         string `mapstructure:"api_key"`
		BaseURL        string `mapstructure:"base_url"`
		ChatModel      string `mapstructure:"chat_model"`
		EmbeddingModel string `mapstructure:"embedding_model"`
	} `mapstructure:"openai"`
}

// LLM decomposer backends.
const (
	LLMBackendGenAI  = "genai"
	LLMBackendOpenAI = "openai"
	LLMBackendNone   = "none"
)

// Vector index backends.
const (
	VectorBackendElasticsearch = "elasticsearch"
	VectorBackendQdrant        = "qdrant"
	VectorBackendNone          = "none"
)

// SearchConfig holds the tunables of the search pipeline.
type SearchConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	FallbackConfidence  float64 `mapstructure:"fallback_confidence"`
	DefaultLimit        int     `mapstructure:"default_limit"`
	MaxLimit            int     `mapstructure:"max_limit"`
	LLMTimeout          int     `mapstructure:"llm_timeout"` // milliseconds
	LLMMaxRetries       int     `mapstructure:"llm_max_retries"`
	LLMBackend          string  `mapstructure:"llm_backend"`
	VectorBackend       string  `mapstructure:"vector_backend"`
	VectorCandidates    int     `mapstructure:"vector_candidates"`
	CandidatePool       int     `mapstructure:"candidate_pool"`
	AuxTimeout          int     `mapstructure:"aux_timeout"`     // milliseconds
	RequestTimeout      int     `mapstructure:"request_timeout"` // milliseconds
}

// EmbeddingConfig holds settings for the query embedding provider.
type EmbeddingConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Dimensions int  `mapstructure:"dimensions"`
	CacheTTL   int  `mapstructure:"cache_ttl"` // milliseconds
	Timeout    int  `mapstructure:"timeout"`   // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ObservabilityConfig holds otel settings.
type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// RegistryConfig points at the activity registry file.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}
