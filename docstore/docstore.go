package docstore

import (
	"context"
	"errors"

	"github.com/smallnest/ragkit/schema"
)

// ErrNotFound is returned when a node or document does not exist in a store.
var ErrNotFound = errors.New("docstore: not found")

// Store owns node and document content. Index graphs reference entries by id;
// the store is the single owner of the bytes.
type Store interface {
	// AddNodes stores nodes, overwriting existing ids.
	AddNodes(ctx context.Context, nodes []*schema.Node) error

	// GetNode returns one node or ErrNotFound.
	GetNode(ctx context.Context, id string) (*schema.Node, error)

	// GetNodeDict returns a mapping for the requested ids. Missing ids are
	// an error; the docstore and the index graph must never disagree.
	GetNodeDict(ctx context.Context, ids []string) (map[string]*schema.Node, error)

	// AddDocuments stores source documents.
	AddDocuments(ctx context.Context, docs []schema.Document) error

	// GetDocument returns one document or ErrNotFound.
	GetDocument(ctx context.Context, id string) (schema.Document, error)
}
