package schema

import (
	"time"

	"github.com/google/uuid"
)

// Document represents a source document with content and metadata.
type Document struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
	UpdatedAt time.Time      `json:"updated_at,omitempty"`
}

// NewDocument creates a document with a fresh ID.
func NewDocument(content string) Document {
	now := time.Now()
	return Document{
		ID:        uuid.NewString(),
		Content:   content,
		Metadata:  make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// QueryBundle carries a query string plus an optional precomputed embedding.
// It is created per query call and never stored.
type QueryBundle struct {
	QueryStr  string
	Embedding []float32
}

// NewQueryBundle creates a bundle for a plain string query.
func NewQueryBundle(queryStr string) QueryBundle {
	return QueryBundle{QueryStr: queryStr}
}

// IndexStruct marks a value stored in a docstore as a nested index that a
// query runner can recurse into, instead of a plain document.
type IndexStruct interface {
	// IndexID returns the identifier the index is registered under.
	IndexID() string
	// Summary returns a short description of the index contents, used when
	// the index appears as a node of an enclosing index.
	Summary() string
}
