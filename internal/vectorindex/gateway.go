// Package vectorindex defines the gateway to the external vector database and the
// batching shared by its backends.
package vectorindex

import (
	"context"
	"fmt"

	"github.com/mwiater/tariffadvisor/internal/domain"
)

const (
	// DefaultBatchSize is the number of records sent per upsert request.
	DefaultBatchSize = 100
	// DefaultDimension matches text-embedding-ada-002.
	DefaultDimension = 1536
	// DefaultMetric is the similarity metric new indexes are created with.
	DefaultMetric = "cosine"
)

// IndexSpec names an index and the shape of the vectors it stores.
type IndexSpec struct {
	Name      string
	Dimension int
	Metric    string
}

// Gateway is the contract every vector database backend implements.
type Gateway interface {
	// EnsureIndex creates the index when it does not exist yet. Calling it again is a no-op.
	EnsureIndex(ctx context.Context, spec IndexSpec) error
	// Upsert writes records in fixed-size batches and reports how many batches were
	// written. A failed batch stops the run; earlier batches stay written.
	Upsert(ctx context.Context, records []domain.IndexRecord) (int, error)
	// Query returns up to topK nearest records, most similar first.
	Query(ctx context.Context, vector domain.EmbeddingVector, topK int) ([]domain.RetrievalMatch, error)
	Close() error
}

// BatchWriter submits one batch to a backend.
type BatchWriter func(ctx context.Context, batch []domain.IndexRecord) error

// Batches splits records into consecutive slices of at most size records.
func Batches(records []domain.IndexRecord, size int) [][]domain.IndexRecord {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([][]domain.IndexRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}

// CheckDimensions fails when any record's vector length differs from dimension.
// A non-positive dimension disables the check.
func CheckDimensions(index string, records []domain.IndexRecord, dimension int) error {
	if dimension <= 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Vector) != dimension {
			return &domain.IndexServiceError{
				Op:    "upsert",
				Index: index,
				Err:   fmt.Errorf("record %s has dimension %d, index expects %d", r.ID, len(r.Vector), dimension),
			}
		}
	}
	return nil
}

// UpsertBatches validates dimensions, then hands each batch to write in order.
// It returns the number of batches written before any failure.
func UpsertBatches(ctx context.Context, index string, records []domain.IndexRecord, size, dimension int, write BatchWriter) (int, error) {
	if err := CheckDimensions(index, records, dimension); err != nil {
		return 0, err
	}
	batches := Batches(records, size)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return i, &domain.IndexServiceError{Op: fmt.Sprintf("upsert batch %d/%d", i+1, len(batches)), Index: index, Err: err}
		}
		if err := write(ctx, batch); err != nil {
			return i, &domain.IndexServiceError{Op: fmt.Sprintf("upsert batch %d/%d", i+1, len(batches)), Index: index, Err: err}
		}
	}
	return len(batches), nil
}

// ValidateTopK rejects non-positive result counts before a query is sent.
func ValidateTopK(index string, topK int) error {
	if topK <= 0 {
		return &domain.IndexServiceError{Op: "query", Index: index, Err: fmt.Errorf("topK must be positive, got %d", topK)}
	}
	return nil
}
