package models

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"bakerychat/internal/models/providers"
)

// ProviderType represents the type of LLM provider
type ProviderType string

const (
	OllamaProvider ProviderType = "ollama"
	OpenAIProvider ProviderType = "openai"
	AzureProvider  ProviderType = "azure"
)

// ModelCredentials holds API keys and other auth details
type ModelCredentials struct {
	APIKey              string
	Deployment          string
	EmbeddingDeployment string
}

// ModelProvider defines a chat model together with the embedding model used
// to index documents for it
type ModelProvider struct {
	Name           string
	Type           ProviderType
	EmbeddingModel string
	Endpoint       string
	Credentials    ModelCredentials
}

// ModelRegistry manages available LLM models
type ModelRegistry struct {
	providers map[string]*ModelProvider
	instances map[string]llms.Model
	embedders map[string]embeddings.Embedder
	mu        sync.RWMutex
}

// NewModelRegistry creates a registry with the local Ollama default
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{
		providers: map[string]*ModelProvider{
			"default": {
				Name:           "llama3.1:latest",
				Type:           OllamaProvider,
				EmbeddingModel: "nomic-embed-text",
				Endpoint:       providers.DefaultOllamaURL,
			},
		},
		instances: make(map[string]llms.Model),
		embedders: make(map[string]embeddings.Embedder),
	}
}

// Register adds or replaces a provider under name, dropping cached clients
func (r *ModelRegistry) Register(name string, provider ModelProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &provider
	delete(r.instances, name)
	delete(r.embedders, name)
}

// Provider returns the configuration registered under name
func (r *ModelRegistry) Provider(name string) (ModelProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return ModelProvider{}, false
	}
	return *p, true
}

// GetModel returns an initialized LLM instance
func (r *ModelRegistry) GetModel(name string) (llms.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Return cached instance if available
	if model, exists := r.instances[name]; exists {
		return model, nil
	}

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("unknown model: %s", name)
	}

	model, err := initializeModel(provider)
	if err != nil {
		return nil, err
	}

	r.instances[name] = model
	return model, nil
}

// GetEmbedder returns the embedder paired with the named model
func (r *ModelRegistry) GetEmbedder(name string) (embeddings.Embedder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if embedder, exists := r.embedders[name]; exists {
		return embedder, nil
	}

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("unknown model: %s", name)
	}

	client, err := initializeEmbedderClient(provider)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	r.embedders[name] = embedder
	return embedder, nil
}

// initializeModel creates a new LLM instance based on provider type
func initializeModel(provider *ModelProvider) (llms.Model, error) {
	switch provider.Type {
	case OllamaProvider:
		return providers.NewOllama(provider.Name, provider.Endpoint)
	case OpenAIProvider:
		return providers.NewOpenAI(provider.Name, provider.EmbeddingModel, provider.Endpoint, provider.Credentials.APIKey)
	case AzureProvider:
		return providers.NewAzureOpenAIProvider(azureConfig(provider))
	default:
		return nil, fmt.Errorf("unsupported model type: %s", provider.Type)
	}
}

func initializeEmbedderClient(provider *ModelProvider) (embeddings.EmbedderClient, error) {
	switch provider.Type {
	case OllamaProvider:
		model := provider.EmbeddingModel
		if model == "" {
			model = provider.Name
		}
		return providers.NewOllama(model, provider.Endpoint)
	case OpenAIProvider:
		return providers.NewOpenAI(provider.Name, provider.EmbeddingModel, provider.Endpoint, provider.Credentials.APIKey)
	case AzureProvider:
		return providers.NewAzureOpenAIProvider(azureConfig(provider))
	default:
		return nil, fmt.Errorf("unsupported model type: %s", provider.Type)
	}
}

func azureConfig(provider *ModelProvider) providers.AzureConfig {
	deployment := provider.Credentials.Deployment
	if deployment == "" {
		deployment = provider.Name
	}
	return providers.AzureConfig{
		Endpoint:            provider.Endpoint,
		APIKey:              provider.Credentials.APIKey,
		Deployment:          deployment,
		EmbeddingDeployment: provider.Credentials.EmbeddingDeployment,
	}
}

// TestModel tests if the model is working by sending a simple query
func (r *ModelRegistry) TestModel(ctx context.Context, name string) (bool, error) {
	model, err := r.GetModel(name)
	if err != nil {
		return false, err
	}

	_, err = llms.GenerateFromSinglePrompt(ctx, model, "Hello, are you working? Please respond with a short answer.")
	if err != nil {
		return false, err
	}

	return true, nil
}
