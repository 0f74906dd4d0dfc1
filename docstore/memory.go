package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/ragkit/schema"
)

// InMemoryStore keeps nodes and documents in maps. Reads may run
// concurrently; writes are serialized with an RWMutex.
type InMemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*schema.Node
	docs  map[string]schema.Document
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		nodes: make(map[string]*schema.Node),
		docs:  make(map[string]schema.Document),
	}
}

// AddNodes stores nodes, overwriting existing ids.
func (s *InMemoryStore) AddNodes(_ context.Context, nodes []*schema.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		s.nodes[n.ID] = n
	}
	return nil
}

// GetNode returns one node or ErrNotFound.
func (s *InMemoryStore) GetNode(_ context.Context, id string) (*schema.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return n, nil
}

// GetNodeDict returns a mapping for the requested ids.
func (s *InMemoryStore) GetNodeDict(_ context.Context, ids []string) (map[string]*schema.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*schema.Node, len(ids))
	for _, id := range ids {
		n, ok := s.nodes[id]
		if !ok {
			return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
		}
		out[id] = n
	}
	return out, nil
}

// AddDocuments stores source documents.
func (s *InMemoryStore) AddDocuments(_ context.Context, docs []schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document with empty id")
		}
		s.docs[d.ID] = d
	}
	return nil
}

// GetDocument returns one document or ErrNotFound.
func (s *InMemoryStore) GetDocument(_ context.Context, id string) (schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return schema.Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return d, nil
}
