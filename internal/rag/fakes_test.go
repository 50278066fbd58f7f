package rag

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/normalize"
	"github.com/mwiater/tariffadvisor/internal/vectorindex"
)

type fakeNormalizer struct {
	chunks []domain.Chunk
	err    error
}

func (f fakeNormalizer) Normalize(context.Context, normalize.Source) ([]domain.Chunk, error) {
	return f.chunks, f.err
}

type fakeEmbedder struct {
	failOn   string
	delay    time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	texts    sync.Map
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingVector, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	f.texts.Store(text, true)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failOn != "" && text == f.failOn {
		return nil, &domain.EmbeddingServiceError{Model: "fake", Err: errors.New("rate limited")}
	}
	return domain.EmbeddingVector{float32(len(text)), 1, 0}, nil
}

type fakeGateway struct {
	mu       sync.Mutex
	batches  [][]domain.IndexRecord
	stored   map[string]domain.IndexRecord
	matches  []domain.RetrievalMatch
	queryErr error
	lastTopK int
	lastVec  domain.EmbeddingVector
}

func (g *fakeGateway) EnsureIndex(context.Context, vectorindex.IndexSpec) error { return nil }

func (g *fakeGateway) Upsert(ctx context.Context, records []domain.IndexRecord) (int, error) {
	return vectorindex.UpsertBatches(ctx, "fake", records, vectorindex.DefaultBatchSize, 3, func(_ context.Context, batch []domain.IndexRecord) error {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.stored == nil {
			g.stored = make(map[string]domain.IndexRecord)
		}
		g.batches = append(g.batches, batch)
		for _, r := range batch {
			g.stored[r.ID] = r
		}
		return nil
	})
}

func (g *fakeGateway) Query(_ context.Context, vec domain.EmbeddingVector, topK int) ([]domain.RetrievalMatch, error) {
	g.lastTopK = topK
	g.lastVec = vec
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	if topK < len(g.matches) {
		return g.matches[:topK], nil
	}
	return g.matches, nil
}

func (g *fakeGateway) Close() error { return nil }

type fakeCompleter struct {
	system, user string
	reply        string
	err          error
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}
