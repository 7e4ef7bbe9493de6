package memory

import (
	"sync"

	"bakerychat/internal/models"
)

// Conversation is the session-owned transcript. It only grows.
type Conversation struct {
	mu       sync.RWMutex
	messages []models.ChatMessage
}

// NewConversation creates a transcript seeded with the bakery greeting
func NewConversation() *Conversation {
	return &Conversation{
		messages: []models.ChatMessage{{Role: models.RoleAssistant, Content: models.Greeting}},
	}
}

// Restore creates a transcript from archived messages, falling back to the
// greeting when nothing was archived
func Restore(messages []models.ChatMessage) *Conversation {
	if len(messages) == 0 {
		return NewConversation()
	}
	c := &Conversation{messages: make([]models.ChatMessage, len(messages))}
	copy(c.messages, messages)
	return c
}

// Append adds a message to the end of the transcript
func (c *Conversation) Append(msg models.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// Messages returns a copy of the full transcript in order
func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}
