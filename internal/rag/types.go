package rag

import (
	"time"

	"github.com/mwiater/tariffadvisor/internal/domain"
)

// ProgressFunc is called after each chunk is embedded with the number of chunks
// finished so far and the total. Calls may come from several goroutines but are
// serialised by the pipeline.
type ProgressFunc func(done, total int)

// Report summarises one ingestion run.
type Report struct {
	Source   string
	Chunks   int
	Batches  int
	Duration time.Duration
}

// RetrievalResult is the retrieved context for one question.
type RetrievalResult struct {
	Question string
	Matches  []domain.RetrievalMatch
	Context  string
}
