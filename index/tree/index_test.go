package tree

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragkit/budget"
	"github.com/smallnest/ragkit/docstore"
	"github.com/smallnest/ragkit/llm"
	"github.com/smallnest/ragkit/schema"
	"github.com/smallnest/ragkit/tokenizer"
)

func newTestIndex(t *testing.T, model *llm.MockModel, numChildren int) *Index {
	t.Helper()
	predictor := llm.NewPredictor(model)
	planner, err := budget.NewPlanner(4096, 256, tokenizer.NewWhitespace())
	require.NoError(t, err)
	idx, err := NewIndex(docstore.NewInMemoryStore(), predictor, planner, WithNumChildren(numChildren))
	require.NoError(t, err)
	return idx
}

func makeLeaves(n int) []*schema.Node {
	out := make([]*schema.Node, n)
	for i := range out {
		out[i] = schema.NewNode(fmt.Sprintf("leaf number %d", i))
	}
	return out
}

func TestIndex_BuildFromNodes(t *testing.T) {
	t.Run("Few leaves stay roots", func(t *testing.T) {
		model := llm.NewMockModel("summary")
		idx := newTestIndex(t, model, 4)
		leaves := makeLeaves(3)

		require.NoError(t, idx.BuildFromNodes(context.Background(), leaves))
		assert.Len(t, idx.Graph().Roots(), 3)
		assert.Equal(t, 0, model.Calls(), "no summaries needed within the fan-out limit")
		assert.NoError(t, idx.Graph().Validate(4))
	})

	t.Run("Leaves are grouped under summaries", func(t *testing.T) {
		model := llm.NewMockModel("summary")
		idx := newTestIndex(t, model, 4)
		leaves := makeLeaves(10)

		require.NoError(t, idx.BuildFromNodes(context.Background(), leaves))
		g := idx.Graph()
		require.Len(t, g.Roots(), 3, "10 leaves in groups of 4 give 3 summaries")
		assert.NoError(t, g.Validate(4))
		assert.ElementsMatch(t, nodeIDs(leaves), leafIDs(g))
		assert.Equal(t, 3, model.Calls())
	})

	t.Run("Two summary layers", func(t *testing.T) {
		model := llm.NewMockModel("summary")
		idx := newTestIndex(t, model, 3)
		leaves := makeLeaves(10)

		require.NoError(t, idx.BuildFromNodes(context.Background(), leaves))
		g := idx.Graph()
		// 10 leaves -> 4 summaries -> 2 summaries.
		require.Len(t, g.Roots(), 2)
		assert.NoError(t, g.Validate(3))
		for _, d := range leafDepths(g) {
			assert.Equal(t, 2, d)
		}
	})

	t.Run("Empty input is rejected", func(t *testing.T) {
		idx := newTestIndex(t, llm.NewMockModel("summary"), 4)
		assert.Error(t, idx.BuildFromNodes(context.Background(), nil))
	})

	t.Run("Stored copies carry their placement", func(t *testing.T) {
		model := llm.NewMockModel("summary")
		predictor := llm.NewPredictor(model)
		planner, err := budget.NewPlanner(4096, 256, tokenizer.NewWhitespace())
		require.NoError(t, err)
		store := newRoundTripStore()
		idx, err := NewIndex(store, predictor, planner, WithNumChildren(3))
		require.NoError(t, err)
		ctx := context.Background()

		require.NoError(t, idx.BuildFromNodes(ctx, makeLeaves(10)))
		g := idx.Graph()

		var check func(parentID string, ids []string)
		check = func(parentID string, ids []string) {
			for _, id := range ids {
				gn, ok := g.Node(id)
				require.True(t, ok)
				sn, err := store.GetNode(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, gn.Index, sn.Index)
				assert.Equal(t, parentID, sn.ParentID, "stored copy of %q lost its parent", id)
				check(id, g.Children(id))
			}
		}
		check("", g.Roots())
	})
}

func nodeIDs(nodes []*schema.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestIndex_Summary(t *testing.T) {
	model := llm.NewMockModel("summary")
	idx := newTestIndex(t, model, 4)
	require.NoError(t, idx.BuildFromNodes(context.Background(), makeLeaves(2)))

	assert.Equal(t, "leaf number 0\nleaf number 1", idx.Summary())

	idx.SetSummary("all the leaves")
	assert.Equal(t, "all the leaves", idx.Summary())
	assert.NotEmpty(t, idx.IndexID())
}

func TestIndex_Query(t *testing.T) {
	model := llm.NewMockModel("").
		Respond("return the choice", "2").
		Respond("answer the question", "the answer").
		Respond("Write a summary", "summary")
	idx := newTestIndex(t, model, 4)

	require.NoError(t, idx.BuildFromNodes(context.Background(), makeLeaves(3)))

	answer, err := idx.Query(context.Background(), schema.NewQueryBundle("which leaf?"))
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)

	// The answer prompt was built from the selected leaf's text.
	prompts := model.Prompts()
	require.NotEmpty(t, prompts)
	assert.Contains(t, prompts[len(prompts)-1], "leaf number 1")
}

func TestRetriever_Retrieve(t *testing.T) {
	t.Run("Empty index", func(t *testing.T) {
		idx := newTestIndex(t, llm.NewMockModel("x"), 4)
		_, err := idx.retriever.Retrieve(context.Background(), schema.NewQueryBundle("q"))
		assert.Error(t, err)
	})

	t.Run("Descends by numbered selection", func(t *testing.T) {
		model := llm.NewMockModel("summary").Respond("return the choice", "3")
		idx := newTestIndex(t, model, 3)
		leaves := makeLeaves(9)
		require.NoError(t, idx.BuildFromNodes(context.Background(), leaves))

		// 9 leaves -> 3 summaries. Selecting "3" at both levels lands on
		// the last leaf.
		leaf, err := idx.retriever.Retrieve(context.Background(), schema.NewQueryBundle("q"))
		require.NoError(t, err)
		assert.Equal(t, leaves[8].ID, leaf.ID)
	})

	t.Run("Unparseable selection falls back to the first candidate", func(t *testing.T) {
		model := llm.NewMockModel("summary").Respond("return the choice", "no idea")
		idx := newTestIndex(t, model, 3)
		leaves := makeLeaves(9)
		require.NoError(t, idx.BuildFromNodes(context.Background(), leaves))

		leaf, err := idx.retriever.Retrieve(context.Background(), schema.NewQueryBundle("q"))
		require.NoError(t, err)
		assert.Equal(t, leaves[0].ID, leaf.ID)
	})

	t.Run("Single candidate skips prediction", func(t *testing.T) {
		model := llm.NewMockModel("answer")
		idx := newTestIndex(t, model, 4)
		leaf := schema.NewNode("only leaf")
		require.NoError(t, idx.BuildFromNodes(context.Background(), []*schema.Node{leaf}))

		got, err := idx.retriever.Retrieve(context.Background(), schema.NewQueryBundle("q"))
		require.NoError(t, err)
		assert.Equal(t, leaf.ID, got.ID)
		assert.Equal(t, 0, model.Calls())
	})
}

func TestExporter(t *testing.T) {
	model := llm.NewMockModel("summary")
	idx := newTestIndex(t, model, 2)
	require.NoError(t, idx.BuildFromNodes(context.Background(), makeLeaves(4)))

	text := NewExporter(idx.Graph()).DrawText()
	assert.Contains(t, text, "leaf number 0")
	assert.Contains(t, text, "summary")

	mermaid := NewExporter(idx.Graph()).DrawMermaid()
	assert.Contains(t, mermaid, "flowchart TD")
	assert.Contains(t, mermaid, "-->")
}
