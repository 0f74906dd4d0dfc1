package loader

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/documentloaders"

	"github.com/smallnest/ragkit/schema"
)

// LangChainLoader adapts a langchaingo document loader, so any source that
// ecosystem supports (CSV, PDF, Notion, ...) can feed an index.
type LangChainLoader struct {
	inner documentloaders.Loader
}

// NewLangChainLoader wraps a langchaingo loader.
func NewLangChainLoader(inner documentloaders.Loader) *LangChainLoader {
	return &LangChainLoader{inner: inner}
}

// Load implements Loader.
func (l *LangChainLoader) Load(ctx context.Context) ([]schema.Document, error) {
	loaded, err := l.inner.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("langchain loader: %w", err)
	}
	docs := make([]schema.Document, 0, len(loaded))
	for _, ld := range loaded {
		doc := schema.NewDocument(ld.PageContent)
		for k, v := range ld.Metadata {
			doc.Metadata[k] = fmt.Sprintf("%v", v)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
