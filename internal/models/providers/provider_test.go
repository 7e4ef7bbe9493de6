package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestToMessages(t *testing.T) {
	msgs, err := ToMessages([]llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, "You are a bakery assistant."),
		llms.TextParts(llms.ChatMessageTypeHuman, "Do you sell ", "bagels?"),
		llms.TextParts(llms.ChatMessageTypeAI, "Yes."),
	})

	require.NoError(t, err)
	assert.Equal(t, []Message{
		{Role: "system", Content: "You are a bakery assistant."},
		{Role: "user", Content: "Do you sell bagels?"},
		{Role: "assistant", Content: "Yes."},
	}, msgs)
}

func TestToMessages_RejectsImages(t *testing.T) {
	_, err := ToMessages([]llms.MessageContent{{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.ImageURLContent{URL: "https://example.com/cake.png"}},
	}})

	assert.Error(t, err)
}

func TestToAzureMessages(t *testing.T) {
	msgs, err := toAzureMessages([]Message{
		{Role: "system", Content: "s"},
		{Role: "user", Content: "u"},
		{Role: "assistant", Content: "a"},
	})
	require.NoError(t, err)
	assert.Len(t, msgs, 3)

	_, err = toAzureMessages([]Message{{Role: "tool", Content: "x"}})
	assert.EqualError(t, err, "unsupported message role: tool")
}

func TestNewAzureOpenAIProvider_RequiresConfig(t *testing.T) {
	_, err := NewAzureOpenAIProvider(AzureConfig{Endpoint: "https://bakery.openai.azure.com"})

	assert.Error(t, err)
}

func TestNewOllama(t *testing.T) {
	_, err := NewOllama("", "")
	assert.Error(t, err)

	llm, err := NewOllama("llama3.1:latest", "")
	require.NoError(t, err)
	assert.NotNil(t, llm)
}

func TestNewOpenAI_RequiresToken(t *testing.T) {
	_, err := NewOpenAI("gpt-4o-mini", "", GitHubModelsURL, "")

	assert.Error(t, err)
}
