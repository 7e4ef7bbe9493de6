package rag

import (
	"context"
	"strings"

	"bakerychat/internal/memory"
	"bakerychat/internal/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/vectorstores"
)

const (
	DefaultTopK         = 4
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// Engine answers free-form questions grounded in the bakery documents
type Engine interface {
	// Chat answers message given the conversation so far, oldest first.
	// history must not include message itself.
	Chat(ctx context.Context, message string, history []models.ChatMessage) (string, error)
}

// Options configures a ChatEngine
type Options struct {
	IndexOptions
	SystemPrompt string
	TopK         int
	TokenLimit   int
	TokenCounter memory.TokenCounter
}

func (o *Options) setDefaults() {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	o.IndexOptions = o.IndexOptions.withDefaults()
	if o.TokenLimit <= 0 {
		o.TokenLimit = memory.DefaultTokenLimit
	}
}

// ChatEngine runs a condense-then-answer retrieval chain over a vector index.
// It is safe for concurrent use; each call gets its own memory buffer.
type ChatEngine struct {
	llm      llms.Model
	store    vectorstores.VectorStore
	qaPrompt prompts.PromptTemplate
	opts     Options
	logger   logrus.FieldLogger
}

var _ Engine = (*ChatEngine)(nil)

// New indexes the documents under opts.DocsDir and returns an engine over them
func New(ctx context.Context, llm llms.Model, embedder embeddings.Embedder, opts Options, logger logrus.FieldLogger) (*ChatEngine, error) {
	opts.setDefaults()
	store, err := BuildOrLoadIndex(ctx, embedder, opts.IndexOptions, logger)
	if err != nil {
		return nil, errors.Wrap(err, "build document index")
	}
	return NewWithStore(llm, store, opts, logger), nil
}

// NewWithStore returns an engine over an already populated vector store
func NewWithStore(llm llms.Model, store vectorstores.VectorStore, opts Options, logger logrus.FieldLogger) *ChatEngine {
	opts.setDefaults()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ChatEngine{
		llm:      llm,
		store:    store,
		qaPrompt: newQAPrompt(opts.SystemPrompt),
		opts:     opts,
		logger:   logger,
	}
}

// Chat implements Engine
func (e *ChatEngine) Chat(ctx context.Context, message string, history []models.ChatMessage) (string, error) {
	buffer := memory.NewTokenBuffer(e.llm, e.opts.TokenLimit, e.opts.TokenCounter)
	if err := buffer.Configure(ctx, history); err != nil {
		return "", errors.Wrap(err, "configure chat memory")
	}

	chain := chains.NewConversationalRetrievalQA(
		chains.NewStuffDocuments(chains.NewLLMChain(e.llm, e.qaPrompt)),
		chains.LoadCondenseQuestionGenerator(e.llm),
		vectorstores.ToRetriever(e.store, e.opts.TopK),
		buffer.Memory(),
	)

	// The transcript is owned by the caller, so the chain is run without
	// saving the turn back into the buffer.
	values, err := buffer.Memory().LoadMemoryVariables(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "load chat memory")
	}
	values["question"] = message

	out, err := chain.Call(ctx, values)
	if err != nil {
		return "", errors.Wrap(err, "run retrieval chain")
	}
	answer, ok := out["text"].(string)
	if !ok {
		return "", errors.New("retrieval chain returned no text")
	}

	e.logger.WithFields(logrus.Fields{
		"history": len(history),
		"chars":   len(answer),
	}).Debug("chat engine answered")
	return strings.TrimSpace(answer), nil
}
