// Package rag holds the ingestion pipeline that embeds and indexes source chunks
// and the answerer that retrieves them to ground chat completions.
package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/logging"
	"github.com/mwiater/tariffadvisor/internal/normalize"
	"github.com/mwiater/tariffadvisor/internal/providers"
	"github.com/mwiater/tariffadvisor/internal/vectorindex"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of embedding requests in flight.
const DefaultConcurrency = 4

// Normalizer produces chunks for a source.
type Normalizer interface {
	Normalize(ctx context.Context, src normalize.Source) ([]domain.Chunk, error)
}

// Pipeline normalizes a source, embeds every chunk and upserts the records.
type Pipeline struct {
	normalizer  Normalizer
	embedder    providers.Embedder
	index       vectorindex.Gateway
	concurrency int
	progress    ProgressFunc
}

// PipelineOption customises a Pipeline.
type PipelineOption func(*Pipeline)

// WithConcurrency sets how many chunks are embedded at once. Values below 1 mean 1.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n < 1 {
			n = 1
		}
		p.concurrency = n
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) PipelineOption {
	return func(p *Pipeline) { p.progress = fn }
}

func NewPipeline(n Normalizer, e providers.Embedder, g vectorindex.Gateway, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		normalizer:  n,
		embedder:    e,
		index:       g,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest runs the whole pipeline for src. On failure the index may hold the
// batches written before the error; re-running overwrites them by id.
func (p *Pipeline) Ingest(ctx context.Context, src normalize.Source) (Report, error) {
	start := time.Now()
	logging.LogEvent("[INGEST] Normalizing %s", src)
	chunks, err := p.normalizer.Normalize(ctx, src)
	if err != nil {
		return Report{Source: src.String()}, err
	}
	logging.LogEvent("[INGEST] %s produced %d chunks", src, len(chunks))

	report, err := p.IngestChunks(ctx, src.String(), chunks)
	report.Duration = time.Since(start)
	return report, err
}

// IngestChunks embeds and upserts chunks that were produced elsewhere, such as
// rows of an already loaded dataset.
func (p *Pipeline) IngestChunks(ctx context.Context, label string, chunks []domain.Chunk) (Report, error) {
	start := time.Now()
	report := Report{Source: label, Chunks: len(chunks)}
	if len(chunks) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	records, err := p.embedAll(ctx, chunks)
	if err != nil {
		report.Duration = time.Since(start)
		return report, err
	}

	batches, err := p.index.Upsert(ctx, records)
	report.Batches = batches
	report.Duration = time.Since(start)
	if err != nil {
		return report, err
	}
	logging.LogEvent("[INGEST] Upserted %d records from %s in %d batch(es) (%s)", len(records), label, batches, report.Duration.Truncate(time.Millisecond))
	return report, nil
}

// embedAll embeds chunks with at most p.concurrency requests in flight. Records
// keep chunk order. The first failure cancels the remaining requests.
func (p *Pipeline) embedAll(ctx context.Context, chunks []domain.Chunk) ([]domain.IndexRecord, error) {
	records := make([]domain.IndexRecord, len(chunks))

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, c := range chunks {
		g.Go(func() error {
			vec, err := p.embedder.Embed(gctx, c.Text)
			if err != nil {
				return fmt.Errorf("embed chunk %s: %w", c.ID, err)
			}
			records[i] = domain.NewIndexRecord(c, vec)

			mu.Lock()
			done++
			if p.progress != nil {
				p.progress(done, len(chunks))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
