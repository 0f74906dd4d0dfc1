package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello from a file"), 0o644))

	docs, err := NewTextLoader(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "hello from a file", docs[0].Content)
	assert.Equal(t, path, docs[0].Metadata["source"])
	assert.NotEmpty(t, docs[0].ID)

	_, err = NewTextLoader(filepath.Join(dir, "missing.txt")).Load(context.Background())
	assert.Error(t, err)
}

func TestDirectoryLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bbb"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.md"), []byte("md"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	t.Run("Pattern filters by base name", func(t *testing.T) {
		docs, err := NewDirectoryLoader(dir, "*.txt").Load(context.Background())
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "aaa", docs[0].Content)
		assert.Equal(t, "bbb", docs[1].Content)
	})

	t.Run("Empty pattern loads everything", func(t *testing.T) {
		docs, err := NewDirectoryLoader(dir, "").Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, docs, 3)
	})
}

func TestHTMLLoader(t *testing.T) {
	html := `<html><head><style>body { color: blue; }</style></head>
	<body>
	<script>console.log("evil")</script>
	<h1>Title Here</h1>
	<p>First paragraph.</p>
	<ul><li>item one</li></ul>
	</body></html>`

	docs, err := NewHTMLLoader(strings.NewReader(html)).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	text := docs[0].Content
	assert.Contains(t, text, "Title Here")
	assert.Contains(t, text, "First paragraph.")
	assert.Contains(t, text, "item one")
	assert.NotContains(t, text, "console.log")
	assert.NotContains(t, text, "color: blue")
	assert.NotContains(t, text, "<p>")
}

func TestMarkdownLoader(t *testing.T) {
	md := "# Heading\n\nSome *emphasized* text.\n\n- bullet one\n- bullet two\n"

	docs, err := NewMarkdownLoader(strings.NewReader(md)).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	text := docs[0].Content
	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "emphasized")
	assert.Contains(t, text, "bullet two")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "*")
}
