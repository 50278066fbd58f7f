// internal/providerfactory/factory.go

// Package providerfactory builds every service the commands need from the
// application configuration and wires them together.
package providerfactory

import (
	"context"
	"fmt"

	"github.com/mwiater/tariffadvisor/internal/appconfig"
	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/logging"
	"github.com/mwiater/tariffadvisor/internal/metrics"
	"github.com/mwiater/tariffadvisor/internal/normalize"
	"github.com/mwiater/tariffadvisor/internal/providers"
	"github.com/mwiater/tariffadvisor/internal/providers/openai"
	"github.com/mwiater/tariffadvisor/internal/rag"
	"github.com/mwiater/tariffadvisor/internal/vectorindex"
	"github.com/mwiater/tariffadvisor/internal/vectorindex/pgvector"
	"github.com/mwiater/tariffadvisor/internal/vectorindex/pinecone"
)

// App holds the constructed services. Close releases the index connection.
type App struct {
	Config   appconfig.Config
	Metrics  *metrics.Metrics
	Embedder providers.Embedder
	LLM      providers.Completer
	Index    vectorindex.Gateway
	Pipeline *rag.Pipeline
	Answerer *rag.Answerer
}

// Options adjust Init. The zero value ensures the index exists.
type Options struct {
	// SkipEnsureIndex leaves index creation to an explicit "index ensure".
	SkipEnsureIndex bool
	// Progress receives ingestion progress.
	Progress rag.ProgressFunc
	// Metrics is reused when set, so a server can expose the same registry.
	Metrics *metrics.Metrics
}

// Init validates cfg, constructs the model client and the selected vector
// backend, ensures the index exists, and assembles the pipelines. Every failure
// is an *domain.InitializationError naming the component.
func Init(ctx context.Context, cfg appconfig.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &domain.InitializationError{Component: "config", Err: err}
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	client, err := openai.New(openai.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		EmbeddingModel: cfg.EmbeddingModel(),
		ChatModel:      cfg.ChatModel(),
		Timeout:        cfg.RequestTimeout(),
	})
	if err != nil {
		return nil, &domain.InitializationError{Component: "openai", Err: err}
	}

	backend, err := NewGateway(cfg)
	if err != nil {
		return nil, err
	}
	index := metrics.NewGateway(backend, m, cfg.BatchSize())

	if !opts.SkipEnsureIndex {
		if err := EnsureIndex(ctx, cfg, index); err != nil {
			_ = index.Close()
			return nil, err
		}
	}

	embedder := metrics.NewEmbedder(client, m)
	completer := metrics.NewCompleter(client, m)

	pipelineOpts := []rag.PipelineOption{rag.WithConcurrency(cfg.Concurrency())}
	if opts.Progress != nil {
		pipelineOpts = append(pipelineOpts, rag.WithProgress(opts.Progress))
	}

	logging.LogEvent("[INIT] backend=%s index=%s embedding=%s chat=%s", cfg.BackendName(), cfg.IndexName(), client.EmbeddingModel(), client.ChatModel())
	return &App{
		Config:   cfg,
		Metrics:  m,
		Embedder: embedder,
		LLM:      completer,
		Index:    index,
		Pipeline: rag.NewPipeline(normalize.New(nil), embedder, index, pipelineOpts...),
		Answerer: rag.NewAnswerer(embedder, index, completer, cfg.TopK()),
	}, nil
}

// NewGateway opens the vector backend selected by cfg without touching the index.
func NewGateway(cfg appconfig.Config) (vectorindex.Gateway, error) {
	switch cfg.BackendName() {
	case appconfig.BackendPinecone:
		g, err := pinecone.New(pinecone.Config{
			APIKey:        cfg.Pinecone.APIKey,
			ControllerURL: cfg.Pinecone.ControllerURL,
			Host:          cfg.Pinecone.Host,
			Index:         cfg.IndexName(),
			Dimension:     cfg.Dimension(),
			Cloud:         cfg.PineconeCloud(),
			Region:        cfg.PineconeRegion(),
			BatchSize:     cfg.BatchSize(),
			Timeout:       cfg.RequestTimeout(),
		})
		if err != nil {
			return nil, &domain.InitializationError{Component: "pinecone", Err: err}
		}
		return g, nil
	case appconfig.BackendPgvector:
		g, err := pgvector.Open(cfg.Postgres.DSN, pgvector.Config{
			Index:     cfg.IndexName(),
			Dimension: cfg.Dimension(),
			Metric:    cfg.Metric(),
			BatchSize: cfg.BatchSize(),
		})
		if err != nil {
			return nil, &domain.InitializationError{Component: "pgvector", Err: err}
		}
		return g, nil
	}
	return nil, &domain.InitializationError{Component: "config", Err: fmt.Errorf("unknown backend %q", cfg.Backend)}
}

// EnsureIndex creates the configured index on g when it is missing.
func EnsureIndex(ctx context.Context, cfg appconfig.Config, g vectorindex.Gateway) error {
	spec := vectorindex.IndexSpec{Name: cfg.IndexName(), Dimension: cfg.Dimension(), Metric: cfg.Metric()}
	if err := g.EnsureIndex(ctx, spec); err != nil {
		return &domain.InitializationError{Component: "index " + spec.Name, Err: err}
	}
	return nil
}

// Close releases the vector backend.
func (a *App) Close() error {
	if a == nil || a.Index == nil {
		return nil
	}
	return a.Index.Close()
}
