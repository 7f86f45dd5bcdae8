// Package llm provides the chat-completion and embedding clients behind SQL generation.
package llm

import (
	"context"
)

// GenerateResponseResult holds a completion and its token usage.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMClient defines the interface for chat-completion calls.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Embedder generates embedding vectors. Only OpenAI-compatible endpoints that
// serve /embeddings implement it.
type Embedder interface {
	CreateEmbeddings(ctx context.Context, inputs []string, model string) ([][]float32, error)
}

var (
	_ LLMClient = (*Client)(nil)
	_ Embedder  = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
	_ LLMClient = (*BreakerClient)(nil)
	_ Embedder  = (*BreakerEmbedder)(nil)
)
