package providers

import (
	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms/openai"
)

// GitHubModelsURL serves OpenAI-compatible models for GitHub tokens
const GitHubModelsURL = "https://models.inference.ai.azure.com"

// NewOpenAI creates a client for the OpenAI API or any compatible endpoint
// such as GitHub Models. baseURL may be empty for api.openai.com.
func NewOpenAI(model, embeddingModel, baseURL, token string) (*openai.LLM, error) {
	if token == "" {
		return nil, errors.New("an API token is required for OpenAI-compatible models")
	}

	opts := []openai.Option{
		openai.WithToken(token),
	}
	if model != "" {
		opts = append(opts, openai.WithModel(model))
	}
	if embeddingModel != "" {
		opts = append(opts, openai.WithEmbeddingModel(embeddingModel))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OpenAI client")
	}
	return client, nil
}
