package rag

import (
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// DefaultSystemPrompt frames every answer the assistant gives
const DefaultSystemPrompt = "You are a bakery customer service assistant. You will help customers with product inquiries, order status, promotions, and other general bakery-related questions. If you don't know the answer, politely let the customer know."

const qaTemplate = `{{.system}}

Use the following bakery information to answer the customer's question.

{{.context}}

Question: {{.question}}
Answer:`

// newQAPrompt builds the answer prompt with the system prompt fixed in place
func newQAPrompt(systemPrompt string) prompts.PromptTemplate {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	tpl := prompts.NewPromptTemplate(qaTemplate, []string{"context", "question"})
	tpl.PartialVariables = map[string]any{"system": systemPrompt}
	return tpl
}
