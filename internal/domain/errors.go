package domain

import "fmt"

// UnsupportedSourceError reports an ingestion or dataset input that no loader recognises.
type UnsupportedSourceError struct {
	Input string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported source: %q", e.Input)
}

// FetchError reports a failed remote fetch. StatusCode is zero for transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports malformed table or document content.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmbeddingServiceError wraps a failure returned by the embedding service.
type EmbeddingServiceError struct {
	Model string
	Err   error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service (model %s): %v", e.Model, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// IndexServiceError wraps a failed create, upsert or query against the vector index.
type IndexServiceError struct {
	Op    string
	Index string
	Err   error
}

func (e *IndexServiceError) Error() string {
	return fmt.Sprintf("vector index %s %s: %v", e.Index, e.Op, e.Err)
}

func (e *IndexServiceError) Unwrap() error { return e.Err }

// AnswerError wraps any failure in the retrieval-augmented answer flow.
// Stage is one of validate, embed, retrieve or complete.
type AnswerError struct {
	Stage string
	Err   error
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("answer (%s): %v", e.Stage, e.Err)
}

func (e *AnswerError) Unwrap() error { return e.Err }

// InitializationError reports a component that could not be constructed at startup.
type InitializationError struct {
	Component string
	Err       error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialize %s: %v", e.Component, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }
