package rag

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// SourceKey is the metadata key holding a chunk's file path
const SourceKey = "source"

var loadable = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".html": true,
	".htm":  true,
	".pdf":  true,
}

// sourceFiles lists every loadable file under dir, recursively, in path order
func sourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if loadable[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// LoadDocuments reads and chunks every bakery document under dir
func LoadDocuments(ctx context.Context, dir string, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	files, err := sourceFiles(dir)
	if err != nil {
		return nil, err
	}

	var docs []schema.Document
	for _, path := range files {
		chunks, err := loadFile(ctx, path, splitter)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
		for i := range chunks {
			if chunks[i].Metadata == nil {
				chunks[i].Metadata = map[string]any{}
			}
			chunks[i].Metadata[SourceKey] = path
		}
		docs = append(docs, chunks...)
	}
	return docs, nil
}

func loadFile(ctx context.Context, path string, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return documentloaders.NewCSV(f).LoadAndSplit(ctx, splitter)
	case ".html", ".htm":
		return documentloaders.NewHTML(f).LoadAndSplit(ctx, splitter)
	case ".pdf":
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		return documentloaders.NewPDF(f, info.Size()).LoadAndSplit(ctx, splitter)
	default:
		return documentloaders.NewText(f).LoadAndSplit(ctx, splitter)
	}
}

// NewSplitter returns the chunker used for indexing
func NewSplitter(chunkSize, chunkOverlap int) textsplitter.TextSplitter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
}
