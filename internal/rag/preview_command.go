package rag

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// RunPreview prints the chunks and prompt that would be used to answer query,
// without calling the completion service.
func RunPreview(ctx context.Context, out io.Writer, a *Answerer, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("query is required")
	}

	status := func(format string, args ...any) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	status("[RAG] Preview query: %s", query)
	status("[RAG] topK: %d", a.TopK())

	result, err := a.Retrieve(ctx, query)
	if err != nil {
		return err
	}

	status("[RAG] matches: %d", len(result.Matches))
	for i, m := range result.Matches {
		status("[RAG] match %d score=%.6f id=%s", i+1, m.Score, m.ID)
		status("[RAG] match %d text: %s", i+1, m.Text)
	}
	status("[RAG] prompt:\n%s", BuildPrompt(result.Context, result.Question))
	return nil
}
