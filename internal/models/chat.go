package models

// Role identifies the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Greeting opens every new conversation
const Greeting = "Hello there 👋!\n\n Good to see you, Welcome to our Bakery! How can I assist you today? Feel free to ask me 😁"

// ChatMessage represents a single message in a conversation
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Valid reports whether the role is one the transcript accepts
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}
