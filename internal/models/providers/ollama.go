package providers

import (
	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms/ollama"
)

// DefaultOllamaURL is where a local Ollama server listens
const DefaultOllamaURL = "http://127.0.0.1:11434"

// NewOllama creates an Ollama client for model. The client also serves
// embeddings when model is an embedding model.
func NewOllama(model, serverURL string) (*ollama.LLM, error) {
	if model == "" {
		return nil, errors.New("ollama model name is required")
	}
	if serverURL == "" {
		serverURL = DefaultOllamaURL
	}
	llm, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(serverURL),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Ollama model")
	}
	return llm, nil
}
