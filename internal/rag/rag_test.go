package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"bakerychat/internal/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

var vocabulary = []string{"bread", "cake", "hours", "delivery", "gluten"}

// keywordEmbedder maps text onto keyword counts so similarity is predictable
type keywordEmbedder struct {
	mu        sync.Mutex
	documents int
}

func (e *keywordEmbedder) vector(text string) []float32 {
	v := make([]float32, len(vocabulary)+1)
	lower := strings.ToLower(text)
	for i, word := range vocabulary {
		v[i] = float32(strings.Count(lower, word))
	}
	v[len(vocabulary)] = 0.01
	return v
}

func (e *keywordEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.documents += len(texts)
	e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *keywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func (e *keywordEmbedder) embedded() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.documents
}

// scriptedLLM answers condense prompts and QA prompts with fixed text
type scriptedLLM struct {
	mu         sync.Mutex
	prompts    []string
	standalone string
	answer     string
	err        error
}

func (l *scriptedLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	var prompt strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt.WriteString(text.Text)
			}
		}
	}

	l.mu.Lock()
	l.prompts = append(l.prompts, prompt.String())
	l.mu.Unlock()

	if l.err != nil {
		return nil, l.err
	}
	reply := l.answer
	if strings.Contains(prompt.String(), "Standalone question:") {
		reply = l.standalone
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (l *scriptedLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, l, prompt, options...)
}

func wordCounter(text string) int {
	return len(strings.Fields(text))
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestMemoryStore_SimilaritySearch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(&keywordEmbedder{})

	ids, err := store.AddDocuments(ctx, []schema.Document{
		{PageContent: "Our bread is baked fresh every morning."},
		{PageContent: "Birthday cake orders need two days notice."},
		{PageContent: "Opening hours are 8 AM to 6 PM."},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-0", "doc-1", "doc-2"}, ids)
	assert.Equal(t, 3, store.Len())

	docs, err := store.SimilaritySearch(ctx, "what are your hours", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].PageContent, "Opening hours")
	assert.Greater(t, docs[0].Score, float32(0.9))

	docs, err = store.SimilaritySearch(ctx, "cake", 10)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Contains(t, docs[0].PageContent, "cake")
}

func TestMemoryStore_ScoreThreshold(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(&keywordEmbedder{})
	_, err := store.AddDocuments(ctx, []schema.Document{
		{PageContent: "bread"},
		{PageContent: "delivery"},
	})
	require.NoError(t, err)

	docs, err := store.SimilaritySearch(ctx, "bread", 5, vectorstores.WithScoreThreshold(0.5))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "bread", docs[0].PageContent)
}

func TestMemoryStore_NoEmbedder(t *testing.T) {
	store := NewMemoryStore(nil)

	_, err := store.AddDocuments(context.Background(), []schema.Document{{PageContent: "x"}})
	assert.Error(t, err)
}

func TestLoadDocuments(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"faq.txt":         "We deliver within 5 miles.",
		"nested/about.md": "# About\nFamily bakery since 1990.",
		"notes.go":        "package ignored",
	})

	docs, err := LoadDocuments(context.Background(), dir, NewSplitter(200, 20))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, filepath.Join(dir, "faq.txt"), docs[0].Metadata[SourceKey])
	assert.Contains(t, docs[0].PageContent, "deliver")
	assert.Equal(t, filepath.Join(dir, "nested", "about.md"), docs[1].Metadata[SourceKey])
}

func TestLoadDocuments_MissingDir(t *testing.T) {
	_, err := LoadDocuments(context.Background(), filepath.Join(t.TempDir(), "nope"), NewSplitter(200, 20))
	assert.Error(t, err)
}

func TestBuildOrLoadIndex_UsesCache(t *testing.T) {
	ctx := context.Background()
	dir := writeDocs(t, map[string]string{"faq.txt": "Fresh bread daily."})
	opts := IndexOptions{
		DocsDir:        dir,
		EmbeddingModel: "test-embed",
		CachePath:      filepath.Join(t.TempDir(), "cache", "index.json"),
		ChunkSize:      200,
		ChunkOverlap:   20,
	}

	first := &keywordEmbedder{}
	store, err := BuildOrLoadIndex(ctx, first, opts, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, first.embedded())
	assert.FileExists(t, opts.CachePath)

	second := &keywordEmbedder{}
	cached, err := BuildOrLoadIndex(ctx, second, opts, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Len())
	assert.Zero(t, second.embedded())

	docs, err := cached.SimilaritySearch(ctx, "bread", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Fresh bread daily.", docs[0].PageContent)
}

func TestBuildOrLoadIndex_RebuildsWhenDocsChange(t *testing.T) {
	ctx := context.Background()
	dir := writeDocs(t, map[string]string{"faq.txt": "Fresh bread daily."})
	opts := IndexOptions{
		DocsDir:   dir,
		CachePath: filepath.Join(t.TempDir(), "index.json"),
	}

	_, err := BuildOrLoadIndex(ctx, &keywordEmbedder{}, opts, quietLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hours.txt"), []byte("Open 8 to 6."), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "hours.txt"), later, later))

	embedder := &keywordEmbedder{}
	store, err := BuildOrLoadIndex(ctx, embedder, opts, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 2, embedder.embedded())
}

func newTestEngine(t *testing.T, llm llms.Model) *ChatEngine {
	t.Helper()
	store := NewMemoryStore(&keywordEmbedder{})
	_, err := store.AddDocuments(context.Background(), []schema.Document{
		{PageContent: "Opening hours are 8 AM to 6 PM."},
		{PageContent: "We offer gluten free bread on weekends."},
	})
	require.NoError(t, err)
	return NewWithStore(llm, store, Options{TopK: 1, TokenCounter: wordCounter}, quietLogger())
}

func TestChatEngine_FirstQuestionSkipsCondense(t *testing.T) {
	llm := &scriptedLLM{answer: "  We open at 8 AM.  "}
	engine := newTestEngine(t, llm)

	reply, err := engine.Chat(context.Background(), "What are your hours?", nil)

	require.NoError(t, err)
	assert.Equal(t, "We open at 8 AM.", reply)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], DefaultSystemPrompt)
	assert.Contains(t, llm.prompts[0], "Opening hours are 8 AM to 6 PM.")
	assert.Contains(t, llm.prompts[0], "Question: What are your hours?")
}

func TestChatEngine_CondensesWithHistory(t *testing.T) {
	llm := &scriptedLLM{standalone: "Do you have gluten free bread?", answer: "Yes, on weekends."}
	engine := newTestEngine(t, llm)

	history := []models.ChatMessage{
		{Role: models.RoleAssistant, Content: models.Greeting},
		{Role: models.RoleUser, Content: "Tell me about your bread"},
		{Role: models.RoleAssistant, Content: "We bake it daily."},
	}
	reply, err := engine.Chat(context.Background(), "Any gluten free?", history)

	require.NoError(t, err)
	assert.Equal(t, "Yes, on weekends.", reply)
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[0], "Human: Tell me about your bread")
	assert.Contains(t, llm.prompts[0], "Follow Up Input: Any gluten free?")
	assert.Contains(t, llm.prompts[1], "gluten free bread on weekends")
	assert.Contains(t, llm.prompts[1], "Question: Do you have gluten free bread?")
}

func TestChatEngine_CustomSystemPrompt(t *testing.T) {
	llm := &scriptedLLM{answer: "ok"}
	store := NewMemoryStore(&keywordEmbedder{})
	engine := NewWithStore(llm, store, Options{SystemPrompt: "Answer like a pirate.", TokenCounter: wordCounter}, nil)

	_, err := engine.Chat(context.Background(), "hello", nil)

	require.NoError(t, err)
	require.Len(t, llm.prompts, 1)
	assert.True(t, strings.HasPrefix(llm.prompts[0], "Answer like a pirate."))
}

func TestChatEngine_ModelError(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("connection refused")}
	engine := newTestEngine(t, llm)

	_, err := engine.Chat(context.Background(), "hours?", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
