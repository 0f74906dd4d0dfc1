package postgres

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragkit/docstore"
	"github.com/smallnest/ragkit/schema"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewStoreWithPool(mock)
}

func TestStore_InitSchema(t *testing.T) {
	mock, s := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ragkit_nodes").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddNodes(t *testing.T) {
	mock, s := newMockStore(t)

	n := schema.NewNode("node text")
	data, err := json.Marshal(n)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO ragkit_nodes").
		WithArgs(n.ID, data).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.AddNodes(context.Background(), []*schema.Node{n}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetNode(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mock, s := newMockStore(t)
		n := schema.NewNode("node text")
		data, err := json.Marshal(n)
		require.NoError(t, err)

		mock.ExpectQuery("SELECT data FROM ragkit_nodes").
			WithArgs(n.ID).
			WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

		got, err := s.GetNode(context.Background(), n.ID)
		require.NoError(t, err)
		assert.Equal(t, "node text", got.Text)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not found", func(t *testing.T) {
		mock, s := newMockStore(t)
		mock.ExpectQuery("SELECT data FROM ragkit_nodes").
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		_, err := s.GetNode(context.Background(), "missing")
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})
}

func TestStore_Documents(t *testing.T) {
	mock, s := newMockStore(t)

	doc := schema.NewDocument("body")
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO ragkit_documents").
		WithArgs(doc.ID, data).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT data FROM ragkit_documents").
		WithArgs(doc.ID).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

	require.NoError(t, s.AddDocuments(context.Background(), []schema.Document{doc}))
	got, err := s.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "body", got.Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}
