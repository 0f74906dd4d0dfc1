package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smallnest/ragkit/schema"
)

// Loader reads external content into documents.
type Loader interface {
	Load(ctx context.Context) ([]schema.Document, error)
}

// TextLoader loads a plain-text file as a single document.
type TextLoader struct {
	path string
}

// NewTextLoader creates a loader for the given file path.
func NewTextLoader(path string) *TextLoader {
	return &TextLoader{path: path}
}

// Load implements Loader.
func (l *TextLoader) Load(ctx context.Context) ([]schema.Document, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	doc := schema.NewDocument(string(data))
	doc.Metadata["source"] = l.path
	return []schema.Document{doc}, nil
}

// DirectoryLoader loads every file matching a glob pattern, one document
// per file, in lexical path order.
type DirectoryLoader struct {
	dir     string
	pattern string
}

// NewDirectoryLoader creates a loader over dir. Pattern is a filepath.Match
// pattern applied to base names; empty means every regular file.
func NewDirectoryLoader(dir, pattern string) *DirectoryLoader {
	return &DirectoryLoader{dir: dir, pattern: pattern}
}

// Load implements Loader.
func (l *DirectoryLoader) Load(ctx context.Context) ([]schema.Document, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", l.dir, err)
	}

	var docs []schema.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if l.pattern != "" {
			ok, err := filepath.Match(l.pattern, entry.Name())
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", l.pattern, err)
			}
			if !ok {
				continue
			}
		}
		loaded, err := NewTextLoader(filepath.Join(l.dir, entry.Name())).Load(ctx)
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}
	return docs, nil
}
