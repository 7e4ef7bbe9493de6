package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/textsplitter"
)

// IndexOptions controls how the bakery documents are indexed
type IndexOptions struct {
	DocsDir        string
	EmbeddingModel string
	CachePath      string
	ChunkSize      int
	ChunkOverlap   int
}

func (o IndexOptions) withDefaults() IndexOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = DefaultChunkOverlap
	}
	return o
}

type indexCache struct {
	Fingerprint string  `json:"fingerprint"`
	Entries     []entry `json:"entries"`
}

// BuildOrLoadIndex returns a vector index over DocsDir. When CachePath holds an
// index built from the same files with the same embedding model it is reused;
// otherwise the documents are embedded again and the cache rewritten.
func BuildOrLoadIndex(ctx context.Context, embedder embeddings.Embedder, opts IndexOptions, logger logrus.FieldLogger) (*MemoryStore, error) {
	opts = opts.withDefaults()
	store := NewMemoryStore(embedder)

	fingerprint, err := fingerprintDocs(opts)
	if err != nil {
		return nil, err
	}

	if opts.CachePath != "" {
		if cached, err := readCache(opts.CachePath); err == nil && cached.Fingerprint == fingerprint {
			store.restore(cached.Entries)
			logger.WithField("chunks", len(cached.Entries)).Info("loaded document index from cache")
			return store, nil
		}
	}

	logger.WithField("dir", opts.DocsDir).Info("loading bakery-related documents")
	var splitter textsplitter.TextSplitter = NewSplitter(opts.ChunkSize, opts.ChunkOverlap)
	docs, err := LoadDocuments(ctx, opts.DocsDir, splitter)
	if err != nil {
		return nil, err
	}
	if _, err := store.AddDocuments(ctx, docs); err != nil {
		return nil, err
	}
	logger.WithField("chunks", store.Len()).Info("built document index")

	if opts.CachePath != "" {
		if err := writeCache(opts.CachePath, indexCache{Fingerprint: fingerprint, Entries: store.snapshot()}); err != nil {
			logger.WithError(err).Warn("could not write index cache")
		}
	}
	return store, nil
}

// fingerprintDocs identifies the document set by path, size, modification
// time, embedding model and chunking parameters
func fingerprintDocs(opts IndexOptions) (string, error) {
	files, err := sourceFiles(opts.DocsDir)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d\n", opts.EmbeddingModel, opts.ChunkSize, opts.ChunkOverlap)
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return "", errors.Wrapf(err, "stat %s", path)
		}
		fmt.Fprintf(h, "%s|%d|%d\n", path, info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func readCache(path string) (indexCache, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return indexCache{}, err
	}
	var cache indexCache
	if err := json.Unmarshal(raw, &cache); err != nil {
		return indexCache{}, err
	}
	return cache, nil
}

func writeCache(path string, cache indexCache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(cache)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
