// internal/providers/provider.go

// Package providers defines the interfaces for the external model services used by
// the ingestion and answering pipelines, so each pipeline can be handed a fake in tests.
package providers

import (
	"context"

	"github.com/mwiater/tariffadvisor/internal/domain"
)

// Embedder turns one text into an embedding vector. Each call is one round trip.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingVector, error)
}

// Completer returns a single chat completion for a system instruction and a user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) (domain.EmbeddingVector, error)

// Embed calls f(ctx, text).
func (f EmbedderFunc) Embed(ctx context.Context, text string) (domain.EmbeddingVector, error) {
	return f(ctx, text)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, system, user string) (string, error)

// Complete calls f(ctx, system, user).
func (f CompleterFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}
