package providers

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToMessages flattens langchaingo message contents into role-tagged text
// messages. Non-text parts are rejected.
func ToMessages(contents []llms.MessageContent) ([]Message, error) {
	out := make([]Message, 0, len(contents))
	for _, mc := range contents {
		var text strings.Builder
		for _, part := range mc.Parts {
			tc, ok := part.(llms.TextContent)
			if !ok {
				return nil, errors.Errorf("unsupported message part %T", part)
			}
			text.WriteString(tc.Text)
		}

		var role string
		switch mc.Role {
		case llms.ChatMessageTypeSystem:
			role = "system"
		case llms.ChatMessageTypeAI:
			role = "assistant"
		case llms.ChatMessageTypeHuman, llms.ChatMessageTypeGeneric:
			role = "user"
		default:
			return nil, errors.Errorf("unsupported message role: %s", mc.Role)
		}
		out = append(out, Message{Role: role, Content: text.String()})
	}
	return out, nil
}
