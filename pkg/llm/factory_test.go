package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/config"
)

func TestNewClientsFromConfig_OpenAI(t *testing.T) {
	clients, err := NewClientsFromConfig(config.LLMConfig{
		Provider: config.ProviderOpenAI,
		BaseURL:  "https://api.groq.com/openai/v1",
		Model:    "llama3-70b-8192",
		APIKey:   "gsk_test",
	}, zap.NewNop())

	require.NoError(t, err)
	assert.IsType(t, &BreakerClient{}, clients.Generator)
	assert.Equal(t, "llama3-70b-8192", clients.Generator.GetModel())
	assert.Nil(t, clients.Embedder, "no embedding model configured")
	assert.NotNil(t, clients.Breaker)
}

func TestNewClientsFromConfig_OpenAIWithEmbeddings(t *testing.T) {
	clients, err := NewClientsFromConfig(config.LLMConfig{
		Provider:       config.ProviderOpenAI,
		BaseURL:        "https://api.openai.com/v1",
		Model:          "gpt-4o-mini",
		APIKey:         "sk-test",
		EmbeddingModel: "text-embedding-3-small",
	}, zap.NewNop())

	require.NoError(t, err)
	assert.IsType(t, &BreakerEmbedder{}, clients.Embedder)
}

func TestNewClientsFromConfig_Anthropic(t *testing.T) {
	clients, err := NewClientsFromConfig(config.LLMConfig{
		Provider:       config.ProviderAnthropic,
		Model:          "claude-3-5-haiku-latest",
		APIKey:         "sk-ant-test",
		EmbeddingModel: "ignored",
	}, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, anthropicEndpoint, clients.Generator.GetEndpoint())
	assert.Nil(t, clients.Embedder)
}

func TestNewClientsFromConfig_Errors(t *testing.T) {
	_, err := NewClientsFromConfig(config.LLMConfig{Provider: "cohere"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewClientsFromConfig(config.LLMConfig{Provider: config.ProviderAnthropic, Model: "m"}, zap.NewNop())
	assert.Error(t, err, "anthropic requires an api key")
}
