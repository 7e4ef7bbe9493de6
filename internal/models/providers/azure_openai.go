package providers

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
)

// AzureConfig locates an Azure OpenAI resource
type AzureConfig struct {
	Endpoint            string
	APIKey              string
	Deployment          string
	EmbeddingDeployment string
}

// AzureOpenAIProvider adapts an Azure OpenAI deployment to langchaingo so it
// can drive the retrieval chain and embed documents
type AzureOpenAIProvider struct {
	client              *azopenai.Client
	deploymentName      string
	embeddingDeployment string
	temperature         float32
	maxTokens           int32
}

var (
	_ llms.Model                = (*AzureOpenAIProvider)(nil)
	_ embeddings.EmbedderClient = (*AzureOpenAIProvider)(nil)
)

// NewAzureOpenAIProvider creates a new Azure OpenAI provider
func NewAzureOpenAIProvider(cfg AzureConfig) (*AzureOpenAIProvider, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" || cfg.Deployment == "" {
		return nil, fmt.Errorf("Azure OpenAI configuration missing: ensure AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY, and AZURE_OPENAI_DEPLOYMENT_NAME are set")
	}

	keyCredential := azcore.NewKeyCredential(cfg.APIKey)
	client, err := azopenai.NewClientWithKeyCredential(cfg.Endpoint, keyCredential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure OpenAI client: %w", err)
	}

	return &AzureOpenAIProvider{
		client:              client,
		deploymentName:      cfg.Deployment,
		embeddingDeployment: cfg.EmbeddingDeployment,
		temperature:         0.7,
		maxTokens:           2000,
	}, nil
}

// GenerateContent implements llms.Model
func (p *AzureOpenAIProvider) GenerateContent(ctx context.Context, contents []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	messages, err := ToMessages(contents)
	if err != nil {
		return nil, err
	}
	chatMessages, err := toAzureMessages(messages)
	if err != nil {
		return nil, err
	}

	temperature := p.temperature
	if opts.Temperature > 0 {
		temperature = float32(opts.Temperature)
	}
	maxTokens := p.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = int32(opts.MaxTokens)
	}

	resp, err := p.client.GetChatCompletions(ctx, azopenai.ChatCompletionsOptions{
		Messages:       chatMessages,
		MaxTokens:      to.Ptr(maxTokens),
		Temperature:    to.Ptr(temperature),
		DeploymentName: to.Ptr(p.deploymentName),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("Azure OpenAI completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from Azure OpenAI")
	}

	choices := make([]*llms.ContentChoice, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		if choice.Message == nil || choice.Message.Content == nil {
			continue
		}
		c := &llms.ContentChoice{Content: *choice.Message.Content}
		if choice.FinishReason != nil {
			c.StopReason = string(*choice.FinishReason)
		}
		choices = append(choices, c)
	}
	if len(choices) == 0 {
		return nil, fmt.Errorf("empty response from Azure OpenAI")
	}

	if opts.StreamingFunc != nil {
		if err := opts.StreamingFunc(ctx, []byte(choices[0].Content)); err != nil {
			return nil, err
		}
	}
	return &llms.ContentResponse{Choices: choices}, nil
}

// Call implements llms.Model
func (p *AzureOpenAIProvider) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, p, prompt, options...)
}

// CreateEmbedding implements embeddings.EmbedderClient
func (p *AzureOpenAIProvider) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if p.embeddingDeployment == "" {
		return nil, fmt.Errorf("no Azure OpenAI embedding deployment configured")
	}

	resp, err := p.client.GetEmbeddings(ctx, azopenai.EmbeddingsOptions{
		Input:          texts,
		DeploymentName: to.Ptr(p.embeddingDeployment),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("Azure OpenAI embedding failed: %w", err)
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index == nil || int(*item.Index) >= len(vectors) {
			continue
		}
		vectors[*item.Index] = item.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return vectors, nil
}

// SetTemperature sets the temperature for completions
func (p *AzureOpenAIProvider) SetTemperature(temp float32) {
	p.temperature = temp
}

// SetMaxTokens sets the max tokens for completions
func (p *AzureOpenAIProvider) SetMaxTokens(tokens int32) {
	p.maxTokens = tokens
}

func toAzureMessages(messages []Message) ([]azopenai.ChatRequestMessageClassification, error) {
	chatMessages := make([]azopenai.ChatRequestMessageClassification, len(messages))

	for i, msg := range messages {
		switch msg.Role {
		case "system":
			chatMessages[i] = &azopenai.ChatRequestSystemMessage{
				Content: azopenai.NewChatRequestSystemMessageContent(msg.Content),
			}
		case "user":
			chatMessages[i] = &azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(msg.Content),
			}
		case "assistant":
			chatMessages[i] = &azopenai.ChatRequestAssistantMessage{
				Content: azopenai.NewChatRequestAssistantMessageContent(msg.Content),
			}
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}
	return chatMessages, nil
}
