package memory

import (
	"context"

	"bakerychat/internal/models"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	lcmemory "github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/schema"
)

const (
	// DefaultTokenLimit caps the history handed to the chat engine
	DefaultTokenLimit = 16000
	// HistoryKey is the memory variable the retrieval chain reads
	HistoryKey = "chat_history"

	humanPrefix = "Human"
	aiPrefix    = "AI"
)

// TokenCounter returns the number of tokens in text
type TokenCounter func(text string) int

// ModelTokenCounter counts tokens with the tokenizer langchaingo picks for model
func ModelTokenCounter(model string) TokenCounter {
	return func(text string) int {
		return llms.CountTokens(model, text)
	}
}

// TokenBuffer is the chat engine's view of the conversation. The full
// transcript is pushed in on every turn and the oldest messages are dropped
// until the rest fits the token limit.
type TokenBuffer struct {
	history *lcmemory.ChatMessageHistory
	buffer  *lcmemory.ConversationTokenBuffer
	limit   int
	count   TokenCounter
}

// NewTokenBuffer wraps a langchaingo ConversationTokenBuffer keyed for the
// conversational retrieval chain
func NewTokenBuffer(llm llms.Model, limit int, count TokenCounter) *TokenBuffer {
	if limit <= 0 {
		limit = DefaultTokenLimit
	}
	if count == nil {
		count = ModelTokenCounter("")
	}
	history := lcmemory.NewChatMessageHistory()
	buffer := lcmemory.NewConversationTokenBuffer(llm, limit,
		lcmemory.WithChatHistory(history),
		lcmemory.WithMemoryKey(HistoryKey),
		lcmemory.WithInputKey("question"),
		lcmemory.WithOutputKey("text"),
		lcmemory.WithHumanPrefix(humanPrefix),
		lcmemory.WithAIPrefix(aiPrefix),
	)
	return &TokenBuffer{history: history, buffer: buffer, limit: limit, count: count}
}

// Configure replaces the buffer contents with history, evicting the oldest
// messages while the total exceeds the token limit
func (b *TokenBuffer) Configure(ctx context.Context, history []models.ChatMessage) error {
	messages := ToLLMMessages(history)
	for len(messages) > 0 {
		text, err := llms.GetBufferString(messages, humanPrefix, aiPrefix)
		if err != nil {
			return errors.Wrap(err, "render chat history")
		}
		if b.count(text) <= b.limit {
			break
		}
		messages = messages[1:]
	}
	return b.history.SetMessages(ctx, messages)
}

// Messages returns what the engine will currently see
func (b *TokenBuffer) Messages(ctx context.Context) ([]llms.ChatMessage, error) {
	return b.history.Messages(ctx)
}

// Memory exposes the buffer to langchaingo chains
func (b *TokenBuffer) Memory() schema.Memory {
	return b.buffer
}

// Limit returns the configured token budget
func (b *TokenBuffer) Limit() int {
	return b.limit
}

// ToLLMMessages converts transcript messages into langchaingo chat messages
func ToLLMMessages(history []models.ChatMessage) []llms.ChatMessage {
	out := make([]llms.ChatMessage, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case models.RoleUser:
			out = append(out, llms.HumanChatMessage{Content: msg.Content})
		case models.RoleAssistant:
			out = append(out, llms.AIChatMessage{Content: msg.Content})
		case models.RoleSystem:
			out = append(out, llms.SystemChatMessage{Content: msg.Content})
		}
	}
	return out
}
