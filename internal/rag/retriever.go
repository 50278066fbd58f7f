package rag

import (
	"context"
	"errors"
	"strings"

	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/logging"
	"github.com/mwiater/tariffadvisor/internal/providers"
	"github.com/mwiater/tariffadvisor/internal/vectorindex"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// Answerer answers questions from the chunks stored in the vector index.
type Answerer struct {
	embedder  providers.Embedder
	index     vectorindex.Gateway
	completer providers.Completer
	topK      int
}

// NewAnswerer builds an Answerer. A non-positive topK uses DefaultTopK.
func NewAnswerer(e providers.Embedder, g vectorindex.Gateway, c providers.Completer, topK int) *Answerer {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Answerer{embedder: e, index: g, completer: c, topK: topK}
}

// TopK reports how many chunks are retrieved per question.
func (a *Answerer) TopK() int { return a.topK }

// Retrieve embeds the question and returns the nearest chunks in index order.
func (a *Answerer) Retrieve(ctx context.Context, question string) (RetrievalResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return RetrievalResult{}, &domain.AnswerError{Stage: "validate", Err: errors.New("question is empty")}
	}

	vec, err := a.embedder.Embed(ctx, question)
	if err != nil {
		return RetrievalResult{}, &domain.AnswerError{Stage: "embed", Err: err}
	}
	matches, err := a.index.Query(ctx, vec, a.topK)
	if err != nil {
		return RetrievalResult{}, &domain.AnswerError{Stage: "retrieve", Err: err}
	}

	return RetrievalResult{
		Question: question,
		Matches:  matches,
		Context:  FormatContext(matches),
	}, nil
}

// Answer retrieves context for question and asks the completion service to answer
// from it. The reply is trimmed. Every failure is an *domain.AnswerError.
func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	result, err := a.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	logging.LogEvent("[ANSWER] %d context chunks for %q", len(result.Matches), result.Question)

	reply, err := a.completer.Complete(ctx, SystemPrompt, BuildPrompt(result.Context, result.Question))
	if err != nil {
		return "", &domain.AnswerError{Stage: "complete", Err: err}
	}
	return strings.TrimSpace(reply), nil
}
