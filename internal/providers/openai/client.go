// Package openai implements the embedding and completion providers on the OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/logging"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultEmbeddingModel = "text-embedding-ada-002"
	DefaultChatModel      = "gpt-3.5-turbo"
)

// Config holds the settings for a Client. Empty models fall back to the defaults.
type Config struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	Timeout        time.Duration
}

// Client calls the embeddings and chat completion endpoints.
type Client struct {
	api            *openai.Client
	host           string
	embeddingModel string
	chatModel      string
}

// New builds a Client. It does not contact the service.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is empty")
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		conf.BaseURL = base
	}
	if cfg.Timeout > 0 {
		conf.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		api:            openai.NewClientWithConfig(conf),
		host:           conf.BaseURL,
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
	}
	if c.embeddingModel == "" {
		c.embeddingModel = DefaultEmbeddingModel
	}
	if c.chatModel == "" {
		c.chatModel = DefaultChatModel
	}
	return c, nil
}

// Embed requests the embedding for a single text.
func (c *Client) Embed(ctx context.Context, text string) (domain.EmbeddingVector, error) {
	logging.LogRequest("out", c.host, c.embeddingModel, "embeddings", map[string]int{"chars": len(text)})

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, &domain.EmbeddingServiceError{Model: c.embeddingModel, Err: err}
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &domain.EmbeddingServiceError{Model: c.embeddingModel, Err: errors.New("empty embedding in response")}
	}
	return domain.EmbeddingVector(resp.Data[0].Embedding), nil
}

// Complete sends a system instruction plus one user message and returns the reply text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	logging.LogRequest("out", c.host, c.chatModel, "chat", map[string]int{"prompt_chars": len(user)})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion (model %s): %w", c.chatModel, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion (model %s): no choices returned", c.chatModel)
	}
	return resp.Choices[0].Message.Content, nil
}

// EmbeddingModel reports the embedding model in use.
func (c *Client) EmbeddingModel() string { return c.embeddingModel }

// ChatModel reports the chat model in use.
func (c *Client) ChatModel() string { return c.chatModel }
