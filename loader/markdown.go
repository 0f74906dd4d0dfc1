package loader

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/smallnest/ragkit/schema"
)

// MarkdownLoader loads Markdown content as a plain-text document: the
// source is rendered and the markup stripped, so headings, lists and code
// fences come out as clean lines of text.
type MarkdownLoader struct {
	reader io.Reader
	source string
}

// NewMarkdownLoader creates a loader over raw Markdown.
func NewMarkdownLoader(r io.Reader) *MarkdownLoader {
	return &MarkdownLoader{reader: r}
}

// Load implements Loader.
func (l *MarkdownLoader) Load(ctx context.Context) ([]schema.Document, error) {
	raw, err := io.ReadAll(l.reader)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	rendered := markdown.ToHTML(raw, p, renderer)

	text, err := extractHTMLText(strings.NewReader(string(rendered)))
	if err != nil {
		return nil, err
	}
	doc := schema.NewDocument(text)
	if l.source != "" {
		doc.Metadata["source"] = l.source
	}
	return []schema.Document{doc}, nil
}
