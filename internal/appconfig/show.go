package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the current configuration summary. Secrets are masked.
func ShowConfig(out io.Writer, cfg Config) {
	if cfg.ConfigPath == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", cfg.ConfigPath)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:            %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:         %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Request Timeout:  %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  OpenAI API Key:   %s\n", Mask(cfg.OpenAI.APIKey))
	fmt.Fprintf(out, "  Embedding Model:  %s\n", cfg.EmbeddingModel())
	fmt.Fprintf(out, "  Chat Model:       %s\n", cfg.ChatModel())
	fmt.Fprintf(out, "  Backend:          %s\n", cfg.BackendName())
	fmt.Fprintf(out, "  Index:            %s (dim %d, %s)\n", cfg.IndexName(), cfg.Dimension(), cfg.Metric())
	fmt.Fprintf(out, "  Batch Size:       %d\n", cfg.BatchSize())
	switch cfg.BackendName() {
	case BackendPinecone:
		fmt.Fprintf(out, "  Pinecone API Key: %s\n", Mask(cfg.Pinecone.APIKey))
		fmt.Fprintf(out, "  Pinecone Region:  %s/%s\n", cfg.PineconeCloud(), cfg.PineconeRegion())
	case BackendPgvector:
		fmt.Fprintf(out, "  Database URL:     %s\n", Mask(cfg.Postgres.DSN))
	}
	fmt.Fprintf(out, "  Ingest Workers:   %d\n", cfg.Concurrency())
	fmt.Fprintf(out, "  RAG Top K:        %d\n", cfg.TopK())
	fmt.Fprintf(out, "  Dataset:          %s\n", cfg.DatasetPath())
	fmt.Fprintf(out, "  Server Address:   %s\n", cfg.ServerAddress())
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	secret = strings.TrimSpace(secret)
	switch {
	case secret == "":
		return "(not set)"
	case len(secret) <= 4:
		return "****"
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}

// Redacted returns a copy of cfg with every secret masked, for debug dumps.
func (c Config) Redacted() Config {
	c.OpenAI.APIKey = Mask(c.OpenAI.APIKey)
	c.Pinecone.APIKey = Mask(c.Pinecone.APIKey)
	c.Postgres.DSN = Mask(c.Postgres.DSN)
	return c
}
