package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/config"
)

// Clients bundles the generation client and, when available, an embedder.
// Both share one circuit breaker.
type Clients struct {
	Generator LLMClient
	Embedder  Embedder // nil when the provider has no embeddings endpoint configured
	Breaker   *CircuitBreaker
}

// NewClientsFromConfig builds the configured provider's client behind a circuit breaker.
// The OpenAI-compatible provider also serves embeddings when an embedding model is set.
func NewClientsFromConfig(cfg config.LLMConfig, logger *zap.Logger) (*Clients, error) {
	breaker := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	switch cfg.Provider {
	case config.ProviderAnthropic:
		client, err := NewAnthropicClient(cfg.APIKey, cfg.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic client: %w", err)
		}
		return &Clients{Generator: WithCircuitBreaker(client, breaker), Breaker: breaker}, nil

	case config.ProviderOpenAI:
		client, err := NewClient(&Config{
			Endpoint: cfg.BaseURL,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai-compatible client: %w", err)
		}
		clients := &Clients{Generator: WithCircuitBreaker(client, breaker), Breaker: breaker}
		if cfg.EmbeddingModel != "" {
			clients.Embedder = WithEmbeddingCircuitBreaker(client, breaker)
		}
		return clients, nil

	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
