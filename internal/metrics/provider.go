// internal/metrics/provider.go
package metrics

import (
	"context"
	"time"

	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/logging"
	"github.com/mwiater/tariffadvisor/internal/providers"
	"github.com/mwiater/tariffadvisor/internal/vectorindex"
)

// Service label values used by the decorators.
const (
	ServiceEmbeddings  = "embeddings"
	ServiceCompletions = "completions"
	ServiceVectorIndex = "vector_index"
)

// Embedder decorates a providers.Embedder with call metrics.
type Embedder struct {
	wrapped providers.Embedder
	m       *Metrics
}

// NewEmbedder wraps e so every Embed call is counted and timed.
func NewEmbedder(e providers.Embedder, m *Metrics) *Embedder {
	logging.LogEvent("[METRICS] Wrapping embedder with metrics provider")
	return &Embedder{wrapped: e, m: m}
}

func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingVector, error) {
	start := time.Now()
	vec, err := e.wrapped.Embed(ctx, text)
	e.m.ObserveCall(ServiceEmbeddings, "embed", start, err)
	return vec, err
}

// Completer decorates a providers.Completer with call metrics.
type Completer struct {
	wrapped providers.Completer
	m       *Metrics
}

// NewCompleter wraps c so every Complete call is counted and timed.
func NewCompleter(c providers.Completer, m *Metrics) *Completer {
	logging.LogEvent("[METRICS] Wrapping completer with metrics provider")
	return &Completer{wrapped: c, m: m}
}

func (c *Completer) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	out, err := c.wrapped.Complete(ctx, system, user)
	c.m.ObserveCall(ServiceCompletions, "complete", start, err)
	return out, err
}

// Gateway decorates a vectorindex.Gateway with call metrics and upsert counters.
type Gateway struct {
	wrapped   vectorindex.Gateway
	m         *Metrics
	batchSize int
}

// NewGateway wraps g, whose upserts are split into batches of batchSize
// records (vectorindex.DefaultBatchSize when non-positive).
func NewGateway(g vectorindex.Gateway, m *Metrics, batchSize int) *Gateway {
	logging.LogEvent("[METRICS] Wrapping vector index gateway with metrics provider")
	if batchSize <= 0 {
		batchSize = vectorindex.DefaultBatchSize
	}
	return &Gateway{wrapped: g, m: m, batchSize: batchSize}
}

func (g *Gateway) EnsureIndex(ctx context.Context, spec vectorindex.IndexSpec) error {
	start := time.Now()
	err := g.wrapped.EnsureIndex(ctx, spec)
	g.m.ObserveCall(ServiceVectorIndex, "ensure_index", start, err)
	return err
}

// Upsert counts the records of every batch the backend acknowledged, including
// the batches written before a failure.
func (g *Gateway) Upsert(ctx context.Context, records []domain.IndexRecord) (int, error) {
	start := time.Now()
	n, err := g.wrapped.Upsert(ctx, records)
	g.m.ObserveCall(ServiceVectorIndex, "upsert", start, err)
	if err == nil {
		g.m.AddUpserted(len(records), n)
	} else if n > 0 {
		g.m.AddUpserted(min(n*g.batchSize, len(records)), n)
	}
	return n, err
}

func (g *Gateway) Query(ctx context.Context, vector domain.EmbeddingVector, topK int) ([]domain.RetrievalMatch, error) {
	start := time.Now()
	matches, err := g.wrapped.Query(ctx, vector, topK)
	g.m.ObserveCall(ServiceVectorIndex, "query", start, err)
	return matches, err
}

// Close passes the call through to the wrapped gateway.
func (g *Gateway) Close() error {
	return g.wrapped.Close()
}

// Answerer is the subset of the answering pipeline the decorator needs.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// CountingAnswerer records the outcome of every Answer call.
type CountingAnswerer struct {
	wrapped Answerer
	m       *Metrics
}

// NewAnswerer wraps a.
func NewAnswerer(a Answerer, m *Metrics) *CountingAnswerer {
	return &CountingAnswerer{wrapped: a, m: m}
}

func (a *CountingAnswerer) Answer(ctx context.Context, question string) (string, error) {
	out, err := a.wrapped.Answer(ctx, question)
	a.m.ObserveAnswer(err)
	return out, err
}
