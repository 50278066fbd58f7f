// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout bounds each call to an external service.
	defaultRequestTimeout = 60 * time.Second

	BackendPinecone = "pinecone"
	BackendPgvector = "pgvector"

	defaultIndexName      = "tariff-index"
	defaultDimension      = 1536
	defaultMetric         = "cosine"
	defaultBatchSize      = 100
	defaultConcurrency    = 4
	defaultTopK           = 5
	defaultCloud          = "aws"
	defaultRegion         = "us-east-1"
	defaultEmbeddingModel = "text-embedding-ada-002"
	defaultChatModel      = "gpt-3.5-turbo"
	defaultDatasetPath    = "data/tariffs.csv"
	defaultServerAddress  = ":8080"
	defaultLogFile        = "tariffadvisor.log"
)

// Config represents the top-level application configuration.
type Config struct {
	Debug          bool           `json:"debug" mapstructure:"debug"`
	LogFile        string         `json:"logFile,omitempty" mapstructure:"logFile"`
	TimeoutSeconds int            `json:"timeout,omitempty" mapstructure:"timeout"`
	Backend        string         `json:"backend" mapstructure:"backend"`
	OpenAI         OpenAIConfig   `json:"openai" mapstructure:"openai"`
	Pinecone       PineconeConfig `json:"pinecone" mapstructure:"pinecone"`
	Postgres       PostgresConfig `json:"postgres" mapstructure:"postgres"`
	Index          IndexConfig    `json:"index" mapstructure:"index"`
	Ingest         IngestConfig   `json:"ingest" mapstructure:"ingest"`
	RAG            RAGConfig      `json:"rag" mapstructure:"rag"`
	Dataset        DatasetConfig  `json:"dataset" mapstructure:"dataset"`
	Server         ServerConfig   `json:"server" mapstructure:"server"`
	ConfigPath     string         `json:"-" mapstructure:"-"`
}

// OpenAIConfig holds the credentials and model names for the OpenAI API.
type OpenAIConfig struct {
	APIKey         string `json:"apiKey,omitempty" mapstructure:"apiKey"`
	BaseURL        string `json:"baseURL,omitempty" mapstructure:"baseURL"`
	EmbeddingModel string `json:"embeddingModel,omitempty" mapstructure:"embeddingModel"`
	ChatModel      string `json:"chatModel,omitempty" mapstructure:"chatModel"`
}

// PineconeConfig holds the Pinecone credentials and serverless placement.
type PineconeConfig struct {
	APIKey        string `json:"apiKey,omitempty" mapstructure:"apiKey"`
	Environment   string `json:"environment,omitempty" mapstructure:"environment"`
	Cloud         string `json:"cloud,omitempty" mapstructure:"cloud"`
	ControllerURL string `json:"controllerURL,omitempty" mapstructure:"controllerURL"`
	Host          string `json:"host,omitempty" mapstructure:"host"`
}

// PostgresConfig holds the connection string used by the pgvector backend.
type PostgresConfig struct {
	DSN string `json:"dsn,omitempty" mapstructure:"dsn"`
}

// IndexConfig describes the vector index shared by both backends.
type IndexConfig struct {
	Name      string `json:"name" mapstructure:"name"`
	Dimension int    `json:"dimension" mapstructure:"dimension"`
	Metric    string `json:"metric" mapstructure:"metric"`
	BatchSize int    `json:"batchSize" mapstructure:"batchSize"`
}

type IngestConfig struct {
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
}

type RAGConfig struct {
	TopK int `json:"topK" mapstructure:"topK"`
}

type DatasetConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

type ServerConfig struct {
	Address            string `json:"address" mapstructure:"address"`
	MaxSessions        int    `json:"maxSessions,omitempty" mapstructure:"maxSessions"`
	SessionIdleMinutes int    `json:"sessionIdleMinutes,omitempty" mapstructure:"sessionIdleMinutes"`
}

// envBindings maps viper keys to the environment variables that override them.
var envBindings = map[string]string{
	"openai.apiKey":        "OPENAI_API_KEY",
	"pinecone.apiKey":      "PINECONE_API_KEY",
	"pinecone.environment": "PINECONE_ENV",
	"index.name":           "PINECONE_INDEX",
	"postgres.dsn":         "DATABASE_URL",
}

// SetDefaults registers every default and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("logFile", defaultLogFile)
	v.SetDefault("timeout", int(defaultRequestTimeout.Seconds()))
	v.SetDefault("backend", BackendPinecone)
	v.SetDefault("openai.embeddingModel", defaultEmbeddingModel)
	v.SetDefault("openai.chatModel", defaultChatModel)
	v.SetDefault("pinecone.environment", defaultRegion)
	v.SetDefault("pinecone.cloud", defaultCloud)
	v.SetDefault("index.name", defaultIndexName)
	v.SetDefault("index.dimension", defaultDimension)
	v.SetDefault("index.metric", defaultMetric)
	v.SetDefault("index.batchSize", defaultBatchSize)
	v.SetDefault("ingest.concurrency", defaultConcurrency)
	v.SetDefault("rag.topK", defaultTopK)
	v.SetDefault("dataset.path", defaultDatasetPath)
	v.SetDefault("server.address", defaultServerAddress)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}

// Load reads the optional config file at path into v and returns the merged
// configuration (flags > env > file > defaults). A missing file is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
			}
			path = ""
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigPath = path
	return cfg, nil
}

// RequestTimeout returns the timeout duration for external calls, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}

// BackendName returns the selected vector backend, lower-cased, defaulting to Pinecone.
func (c Config) BackendName() string {
	if b := strings.ToLower(strings.TrimSpace(c.Backend)); b != "" {
		return b
	}
	return BackendPinecone
}

func (c Config) IndexName() string {
	if n := strings.TrimSpace(c.Index.Name); n != "" {
		return n
	}
	return defaultIndexName
}

func (c Config) Dimension() int {
	if c.Index.Dimension <= 0 {
		return defaultDimension
	}
	return c.Index.Dimension
}

func (c Config) Metric() string {
	if m := strings.TrimSpace(c.Index.Metric); m != "" {
		return m
	}
	return defaultMetric
}

func (c Config) BatchSize() int {
	if c.Index.BatchSize <= 0 {
		return defaultBatchSize
	}
	return c.Index.BatchSize
}

func (c Config) Concurrency() int {
	if c.Ingest.Concurrency <= 0 {
		return defaultConcurrency
	}
	return c.Ingest.Concurrency
}

func (c Config) TopK() int {
	if c.RAG.TopK <= 0 {
		return defaultTopK
	}
	return c.RAG.TopK
}

func (c Config) DatasetPath() string {
	if p := strings.TrimSpace(c.Dataset.Path); p != "" {
		return p
	}
	return defaultDatasetPath
}

func (c Config) ServerAddress() string {
	if a := strings.TrimSpace(c.Server.Address); a != "" {
		return a
	}
	return defaultServerAddress
}

// SessionIdleTTL returns the configured idle lifetime of a chat session, or
// zero to use the store's default.
func (c Config) SessionIdleTTL() time.Duration {
	if c.Server.SessionIdleMinutes <= 0 {
		return 0
	}
	return time.Duration(c.Server.SessionIdleMinutes) * time.Minute
}

func (c Config) EmbeddingModel() string {
	if m := strings.TrimSpace(c.OpenAI.EmbeddingModel); m != "" {
		return m
	}
	return defaultEmbeddingModel
}

func (c Config) ChatModel() string {
	if m := strings.TrimSpace(c.OpenAI.ChatModel); m != "" {
		return m
	}
	return defaultChatModel
}

func (c Config) PineconeCloud() string {
	if v := strings.TrimSpace(c.Pinecone.Cloud); v != "" {
		return v
	}
	return defaultCloud
}

func (c Config) PineconeRegion() string {
	if v := strings.TrimSpace(c.Pinecone.Environment); v != "" {
		return v
	}
	return defaultRegion
}

// Validate reports the first missing credential or unusable setting for the
// selected backend.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return errors.New("OPENAI_API_KEY is not set")
	}
	switch c.BackendName() {
	case BackendPinecone:
		if strings.TrimSpace(c.Pinecone.APIKey) == "" {
			return errors.New("PINECONE_API_KEY is not set")
		}
	case BackendPgvector:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return errors.New("DATABASE_URL is not set")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendPinecone, BackendPgvector)
	}
	switch c.Metric() {
	case "cosine", "euclidean", "dotproduct":
	default:
		return fmt.Errorf("unknown metric %q", c.Index.Metric)
	}
	return nil
}
