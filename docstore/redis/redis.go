package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/ragkit/docstore"
	"github.com/smallnest/ragkit/schema"
)

// Store implements docstore.Store using Redis. Nodes and documents are
// stored as JSON values under prefixed keys.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ docstore.Store = (*Store)(nil)

// Options configuration for the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "ragkit:"
	TTL      time.Duration // Expiration for entries, default 0 (no expiration)
}

// NewStore creates a Redis-backed docstore.
func NewStore(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "ragkit:"
	}

	return &Store{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) nodeKey(id string) string {
	return fmt.Sprintf("%snode:%s", s.prefix, id)
}

func (s *Store) documentKey(id string) string {
	return fmt.Sprintf("%sdocument:%s", s.prefix, id)
}

// AddNodes stores nodes as JSON values.
func (s *Store) AddNodes(ctx context.Context, nodes []*schema.Node) error {
	pipe := s.client.Pipeline()
	for _, n := range nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal node %s: %w", n.ID, err)
		}
		pipe.Set(ctx, s.nodeKey(n.ID), data, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store nodes: %w", err)
	}
	return nil
}

// GetNode returns one node or docstore.ErrNotFound.
func (s *Store) GetNode(ctx context.Context, id string) (*schema.Node, error) {
	data, err := s.client.Get(ctx, s.nodeKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("node %s: %w", id, docstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get node %s: %w", id, err)
	}

	var n schema.Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("unmarshal node %s: %w", id, err)
	}
	return &n, nil
}

// GetNodeDict returns a mapping for the requested ids.
func (s *Store) GetNodeDict(ctx context.Context, ids []string) (map[string]*schema.Node, error) {
	out := make(map[string]*schema.Node, len(ids))
	for _, id := range ids {
		n, err := s.GetNode(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, nil
}

// AddDocuments stores documents as JSON values.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document) error {
	pipe := s.client.Pipeline()
	for _, d := range docs {
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", d.ID, err)
		}
		pipe.Set(ctx, s.documentKey(d.ID), data, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store documents: %w", err)
	}
	return nil
}

// GetDocument returns one document or docstore.ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, id string) (schema.Document, error) {
	data, err := s.client.Get(ctx, s.documentKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return schema.Document{}, fmt.Errorf("document %s: %w", id, docstore.ErrNotFound)
	}
	if err != nil {
		return schema.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}

	var d schema.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return schema.Document{}, fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	return d, nil
}
