package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/ragkit/docstore"
	"github.com/smallnest/ragkit/schema"
)

// DBPool defines the interface for the database connection pool.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements docstore.Store using PostgreSQL with JSONB rows.
type Store struct {
	pool DBPool
}

var _ docstore.Store = (*Store)(nil)

// Options configuration for the Postgres connection.
type Options struct {
	ConnString string
}

// NewStore creates a connection pool and the store.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewStoreWithPool creates a store around an existing pool. Useful for
// testing with mocks.
func NewStoreWithPool(pool DBPool) *Store {
	return &Store{pool: pool}
}

// InitSchema creates the necessary tables if they don't exist.
func (s *Store) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ragkit_nodes (
			id TEXT PRIMARY KEY,
			data JSONB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS ragkit_documents (
			id TEXT PRIMARY KEY,
			data JSONB NOT NULL
		);
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// AddNodes upserts nodes as JSONB rows.
func (s *Store) AddNodes(ctx context.Context, nodes []*schema.Node) error {
	for _, n := range nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal node %s: %w", n.ID, err)
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO ragkit_nodes (id, data) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
			n.ID, data)
		if err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}
	return nil
}

// GetNode returns one node or docstore.ErrNotFound.
func (s *Store) GetNode(ctx context.Context, id string) (*schema.Node, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM ragkit_nodes WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("node %s: %w", id, docstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query node %s: %w", id, err)
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

// AddDocuments upserts documents as JSONB rows.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document) error {
	for _, d := range docs {
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", d.ID, err)
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO ragkit_documents (id, data) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
			d.ID, data)
		if err != nil {
			return fmt.Errorf("insert document %s: %w", d.ID, err)
		}
	}
	return nil
}

// GetDocument returns one document or docstore.ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, id string) (schema.Document, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM ragkit_documents WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return schema.Document{}, fmt.Errorf("document %s: %w", id, docstore.ErrNotFound)
	}
	if err != nil {
		return schema.Document{}, fmt.Errorf("query document %s: %w", id, err)
	}

	var d schema.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return schema.Document{}, fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	return d, nil
}
