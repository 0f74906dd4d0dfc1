package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/ragkit/docstore"
	"github.com/smallnest/ragkit/schema"
)

// Store implements docstore.Store using SQLite. Nodes and documents are
// stored as JSON rows.
type Store struct {
	db *sql.DB
}

var _ docstore.Store = (*Store)(nil)

// Options configuration for the SQLite connection.
type Options struct {
	// Path is the database file path, or ":memory:".
	Path string
}

// NewStore opens (or creates) the database and initializes the schema.
func NewStore(opts Options) (*Store, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddNodes upserts nodes as JSON rows.
func (s *Store) AddNodes(ctx context.Context, nodes []*schema.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, n := range nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal node %s: %w", n.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO nodes (id, data) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
			n.ID, string(data))
		if err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

// GetNode returns one node or docstore.ErrNotFound.
func (s *Store) GetNode(ctx context.Context, id string) (*schema.Node, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM nodes WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %s: %w", id, docstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query node %s: %w", id, err)
	}

	var n schema.Node
	if err := json.Unmarshal([]byte(data), &n); err != nil {
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

// AddDocuments upserts documents as JSON rows.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, d := range docs {
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", d.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (id, data) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
			d.ID, string(data))
		if err != nil {
			return fmt.Errorf("insert document %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

// GetDocument returns one document or docstore.ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, id string) (schema.Document, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Document{}, fmt.Errorf("document %s: %w", id, docstore.ErrNotFound)
	}
	if err != nil {
		return schema.Document{}, fmt.Errorf("query document %s: %w", id, err)
	}

	var d schema.Document
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return schema.Document{}, fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	return d, nil
}
