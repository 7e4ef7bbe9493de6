package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// MemoryStore is an in-process vector index over the bakery documents.
// It satisfies vectorstores.VectorStore so langchaingo retrievers can use it.
type MemoryStore struct {
	embedder embeddings.Embedder
	mu       sync.RWMutex
	entries  []entry
}

type entry struct {
	ID       string          `json:"id"`
	Document schema.Document `json:"document"`
	Vector   []float32       `json:"vector"`
}

var _ vectorstores.VectorStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store that embeds with embedder
func NewMemoryStore(embedder embeddings.Embedder) *MemoryStore {
	return &MemoryStore{embedder: embedder}
}

// AddDocuments embeds and stores docs, returning their generated ids
func (s *MemoryStore) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	embedder := s.resolveEmbedder(options)
	if embedder == nil {
		return nil, errors.New("vector store has no embedder")
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, errors.Wrap(err, "embed documents")
	}
	if len(vectors) != len(docs) {
		return nil, errors.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(docs))
	for i, doc := range docs {
		id := fmt.Sprintf("doc-%d", len(s.entries))
		vector := vectors[i]
		normalize(vector)
		s.entries = append(s.entries, entry{ID: id, Document: doc, Vector: vector})
		ids[i] = id
	}
	return ids, nil
}

// SimilaritySearch returns the numDocuments entries closest to query
func (s *MemoryStore) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}
	embedder := s.embedder
	if opts.Embedder != nil {
		embedder = opts.Embedder
	}
	if embedder == nil {
		return nil, errors.New("vector store has no embedder")
	}

	queryVector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "embed query")
	}
	normalize(queryVector)

	s.mu.RLock()
	defer s.mu.RUnlock()

	type similarity struct {
		index int
		score float32
	}
	similarities := make([]similarity, 0, len(s.entries))
	for i, e := range s.entries {
		score := cosineSimilarity(queryVector, e.Vector)
		if opts.ScoreThreshold > 0 && score < opts.ScoreThreshold {
			continue
		}
		similarities = append(similarities, similarity{i, score})
	}

	sort.SliceStable(similarities, func(i, j int) bool {
		return similarities[i].score > similarities[j].score
	})

	n := len(similarities)
	if numDocuments > 0 && numDocuments < n {
		n = numDocuments
	}
	results := make([]schema.Document, n)
	for i := 0; i < n; i++ {
		doc := s.entries[similarities[i].index].Document
		doc.Score = similarities[i].score
		results[i] = doc
	}
	return results, nil
}

// Len returns the number of indexed chunks
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) snapshot() []entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *MemoryStore) restore(entries []entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
}

func (s *MemoryStore) resolveEmbedder(options []vectorstores.Option) embeddings.Embedder {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Embedder != nil {
		return opts.Embedder
	}
	return s.embedder
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct float32
	var normA float32
	var normB float32

	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / float32(math.Sqrt(float64(normA)*float64(normB)))
}

func normalize(v []float32) {
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	norm = float32(math.Sqrt(float64(norm)))

	if norm != 0 {
		for i := range v {
			v[i] /= norm
		}
	}
}
