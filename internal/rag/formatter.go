package rag

import (
	"fmt"
	"strings"

	"github.com/mwiater/tariffadvisor/internal/domain"
)

// SystemPrompt is sent as the system message of every answer request.
const SystemPrompt = "You are a U.S. trade tariff expert. Reply only in plain text."

const promptTemplate = "Answer the question based only on the following tariff data:\n\n%s\n\nQ: %s\nA:"

// FormatContext joins the retrieved texts with newlines, in retrieval order.
// Blank texts are skipped.
func FormatContext(matches []domain.RetrievalMatch) string {
	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		if text := strings.TrimSpace(m.Text); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n")
}

// BuildPrompt places the context above the question in the answer template.
func BuildPrompt(context, question string) string {
	return fmt.Sprintf(promptTemplate, context, strings.TrimSpace(question))
}
