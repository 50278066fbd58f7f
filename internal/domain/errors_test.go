package domain

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestErrorsUnwrapThroughWrapping(t *testing.T) {
	base := &AnswerError{Stage: "embed", Err: &EmbeddingServiceError{Model: "m", Err: io.ErrUnexpectedEOF}}
	wrapped := fmt.Errorf("ask: %w", base)

	var answerErr *AnswerError
	if !errors.As(wrapped, &answerErr) || answerErr.Stage != "embed" {
		t.Fatalf("expected AnswerError with stage embed, got %v", wrapped)
	}
	var embedErr *EmbeddingServiceError
	if !errors.As(wrapped, &embedErr) {
		t.Fatalf("expected EmbeddingServiceError in chain")
	}
	if !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Fatalf("expected root cause in chain")
	}
}

func TestFetchErrorMessage(t *testing.T) {
	withStatus := &FetchError{URL: "http://x", StatusCode: 503}
	if !strings.Contains(withStatus.Error(), "503") {
		t.Fatalf("status missing from %q", withStatus.Error())
	}
	transport := &FetchError{URL: "http://x", Err: io.EOF}
	if !strings.Contains(transport.Error(), "EOF") {
		t.Fatalf("cause missing from %q", transport.Error())
	}
}

func TestUnsupportedSourceNamesInput(t *testing.T) {
	err := &UnsupportedSourceError{Input: "notes.txt"}
	if !strings.Contains(err.Error(), "notes.txt") {
		t.Fatalf("input missing from %q", err.Error())
	}
}

func TestNewIndexRecordCarriesText(t *testing.T) {
	rec := NewIndexRecord(Chunk{ID: "row-0", Text: "Country: Vietnam"}, EmbeddingVector{1, 2})
	if rec.ID != "row-0" || rec.Text() != "Country: Vietnam" || len(rec.Vector) != 2 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}
