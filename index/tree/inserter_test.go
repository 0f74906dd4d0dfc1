package tree

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/ragkit/budget"
	"github.com/smallnest/ragkit/docstore"
	"github.com/smallnest/ragkit/index"
	"github.com/smallnest/ragkit/llm"
	"github.com/smallnest/ragkit/schema"
	"github.com/smallnest/ragkit/tokenizer"
)

// roundTripStore serializes nodes on every write and deserializes on every
// read, so callers never share pointers with the store. It behaves like the
// sqlite, redis and postgres adapters without needing a database in tests.
type roundTripStore struct {
	nodes map[string][]byte
	docs  map[string][]byte
}

var _ docstore.Store = (*roundTripStore)(nil)

func newRoundTripStore() *roundTripStore {
	return &roundTripStore{
		nodes: make(map[string][]byte),
		docs:  make(map[string][]byte),
	}
}

func (s *roundTripStore) AddNodes(_ context.Context, nodes []*schema.Node) error {
	for _, n := range nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		s.nodes[n.ID] = data
	}
	return nil
}

func (s *roundTripStore) GetNode(_ context.Context, id string) (*schema.Node, error) {
	data, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, docstore.ErrNotFound)
	}
	var n schema.Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *roundTripStore) GetNodeDict(ctx context.Context, ids []string) (map[string]*schema.Node, error) {
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

func (s *roundTripStore) AddDocuments(_ context.Context, docs []schema.Document) error {
	for _, d := range docs {
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		s.docs[d.ID] = data
	}
	return nil
}

func (s *roundTripStore) GetDocument(_ context.Context, id string) (schema.Document, error) {
	data, ok := s.docs[id]
	if !ok {
		return schema.Document{}, fmt.Errorf("document %s: %w", id, docstore.ErrNotFound)
	}
	var d schema.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return schema.Document{}, err
	}
	return d, nil
}

func newTestFixture(t *testing.T, model *llm.MockModel, numChildren int) (*index.Graph, *Inserter) {
	t.Helper()
	predictor := llm.NewPredictor(model)
	planner, err := budget.NewPlanner(4096, 256, tokenizer.NewWhitespace())
	require.NoError(t, err)
	graph := index.NewGraph()
	ins, err := NewInserter(graph, docstore.NewInMemoryStore(), predictor, planner, WithNumChildren(numChildren))
	require.NoError(t, err)
	return graph, ins
}

// leafIDs walks the graph and returns the ids of all childless nodes.
func leafIDs(g *index.Graph) []string {
	var out []string
	var walk func(ids []string)
	walk = func(ids []string) {
		for _, id := range ids {
			kids := g.Children(id)
			if len(kids) == 0 {
				out = append(out, id)
			} else {
				walk(kids)
			}
		}
	}
	walk(g.Roots())
	return out
}

// leafDepths maps leaf id to its distance from the root level.
func leafDepths(g *index.Graph) map[string]int {
	out := make(map[string]int)
	var walk func(ids []string, depth int)
	walk = func(ids []string, depth int) {
		for _, id := range ids {
			kids := g.Children(id)
			if len(kids) == 0 {
				out[id] = depth
			} else {
				walk(kids, depth+1)
			}
		}
	}
	walk(g.Roots(), 0)
	return out
}

func TestNewInserter(t *testing.T) {
	model := llm.NewMockModel("summary")
	predictor := llm.NewPredictor(model)
	planner, err := budget.NewPlanner(4096, 256, tokenizer.NewWhitespace())
	require.NoError(t, err)

	t.Run("Fan-out below two is rejected", func(t *testing.T) {
		_, err := NewInserter(index.NewGraph(), docstore.NewInMemoryStore(), predictor, planner, WithNumChildren(1))
		assert.Error(t, err)
	})

	t.Run("Missing dependencies are rejected", func(t *testing.T) {
		_, err := NewInserter(nil, docstore.NewInMemoryStore(), predictor, planner)
		assert.Error(t, err)
		_, err = NewInserter(index.NewGraph(), nil, predictor, planner)
		assert.Error(t, err)
		_, err = NewInserter(index.NewGraph(), docstore.NewInMemoryStore(), nil, planner)
		assert.Error(t, err)
		_, err = NewInserter(index.NewGraph(), docstore.NewInMemoryStore(), predictor, nil)
		assert.Error(t, err)
	})
}

func TestInserter_ConsolidationTrace(t *testing.T) {
	// Fan-out 2, leaves A, B, C. A and B sit at the root level (at the
	// limit, no split). Inserting C first consolidates [A, B] into two
	// single-leaf summaries, then the insertion pushes the level to three
	// children and triggers a second consolidation.
	model := llm.NewMockModel("summary")
	graph, ins := newTestFixture(t, model, 2)
	ctx := context.Background()

	a := schema.NewNode("A")
	b := schema.NewNode("B")
	c := schema.NewNode("C")

	require.NoError(t, ins.Insert(ctx, a))
	require.NoError(t, ins.Insert(ctx, b))
	assert.Equal(t, []string{a.ID, b.ID}, graph.Roots())
	assert.Equal(t, 0, model.Calls(), "no prediction needed below the limit")

	require.NoError(t, ins.Insert(ctx, c))

	roots := graph.Roots()
	require.Len(t, roots, 2)
	assert.NoError(t, graph.Validate(2))

	// A, B and C all survive as leaves.
	assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, leafIDs(graph))

	// The first consolidation wrapped A and B each in a summary node, the
	// second wrapped those; C entered after the first split, so it sits one
	// level higher than B.
	depths := leafDepths(graph)
	assert.Equal(t, 2, depths[a.ID])
	assert.Equal(t, 2, depths[b.ID])
	assert.Equal(t, 1, depths[c.ID])
}

func TestInserter_InvariantAfterManyInserts(t *testing.T) {
	const numChildren = 3
	model := llm.NewMockModel("summary").Respond("new piece of information", "1")
	graph, ins := newTestFixture(t, model, numChildren)
	ctx := context.Background()

	var inserted []*schema.Node
	for i := 0; i < numChildren*3+1; i++ {
		n := schema.NewNode("leaf text")
		inserted = append(inserted, n)
		require.NoError(t, ins.Insert(ctx, n))
		assert.NoError(t, graph.Validate(numChildren), "invariant must hold after every top-level insert")
	}

	// Every inserted node is still reachable as a leaf.
	leaves := leafIDs(graph)
	for _, n := range inserted {
		assert.Contains(t, leaves, n.ID)
	}

	// num_children*3+1 leaves force at least two summary levels.
	maxDepth := 0
	for _, d := range leafDepths(graph) {
		if d > maxDepth {
			maxDepth = d
		}
	}
	assert.GreaterOrEqual(t, maxDepth, 2)
}

func TestInserter_SelectionFallback(t *testing.T) {
	// Grow past the limit so the root level holds summary nodes, then make
	// the selection response unparseable. The insert must still succeed by
	// falling back locally instead of surfacing a parse error.
	model := llm.NewMockModel("summary").Respond("new piece of information", "none of these look right")
	graph, ins := newTestFixture(t, model, 2)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, ins.Insert(ctx, schema.NewNode("leaf text")))
	}
	assert.NoError(t, graph.Validate(2))
	assert.Len(t, leafIDs(graph), 4)
}

func TestInserter_FailedPredictionLeavesGraphUntouched(t *testing.T) {
	model := llm.NewMockModel("summary")
	predictor := llm.NewPredictor(model)
	planner, err := budget.NewPlanner(4096, 256, tokenizer.NewWhitespace())
	require.NoError(t, err)
	graph := index.NewGraph()
	store := newRoundTripStore()
	ins, err := NewInserter(graph, store, predictor, planner, WithNumChildren(2))
	require.NoError(t, err)
	ctx := context.Background()

	a := schema.NewNode("A")
	b := schema.NewNode("B")
	require.NoError(t, ins.Insert(ctx, a))
	require.NoError(t, ins.Insert(ctx, b))

	rootsBefore := graph.Roots()
	lenBefore := graph.Len()
	textA, textB := a.Text, b.Text

	// Inserting C needs a consolidation summary; fail that call.
	model.Err = errors.New("upstream unavailable")
	c := schema.NewNode("C")
	err = ins.Insert(ctx, c)
	require.Error(t, err)
	assert.ErrorContains(t, err, "upstream unavailable")

	assert.Equal(t, rootsBefore, graph.Roots(), "no structural change from the failed insert")
	assert.Equal(t, lenBefore, graph.Len())
	assert.Equal(t, textA, a.Text, "no partial summary overwrite")
	assert.Equal(t, textB, b.Text)
	assert.Empty(t, graph.Children(a.ID))
	assert.Empty(t, graph.Children(b.ID))

	// The failed insert must not leave an orphan row behind either.
	_, err = store.GetNode(ctx, c.ID)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestInserter_PersistedNodesCarryGraphPlacement(t *testing.T) {
	// A store that does not alias the graph's pointers must still see the
	// insertion indices and parent links the graph assigns; otherwise a
	// reloaded index has no child ordering left.
	model := llm.NewMockModel("summary").Respond("new piece of information", "1")
	predictor := llm.NewPredictor(model)
	planner, err := budget.NewPlanner(4096, 256, tokenizer.NewWhitespace())
	require.NoError(t, err)
	graph := index.NewGraph()
	store := newRoundTripStore()
	ins, err := NewInserter(graph, store, predictor, planner, WithNumChildren(2))
	require.NoError(t, err)
	ctx := context.Background()

	for _, text := range []string{"A", "B", "C", "D"} {
		require.NoError(t, ins.Insert(ctx, schema.NewNode(text)))
	}
	require.NoError(t, graph.Validate(2))

	var ids []string
	var walk func(level []string)
	walk = func(level []string) {
		for _, id := range level {
			ids = append(ids, id)
			walk(graph.Children(id))
		}
	}
	walk(graph.Roots())
	require.NotEmpty(t, ids)

	seen := make(map[int]bool)
	for _, id := range ids {
		gn, ok := graph.Node(id)
		require.True(t, ok)
		sn, err := store.GetNode(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, gn.Index, sn.Index, "stored copy of %q lost its insertion index", id)
		assert.Equal(t, gn.ParentID, sn.ParentID, "stored copy of %q lost its parent", id)
		assert.NotZero(t, sn.Index)
		assert.False(t, seen[sn.Index], "insertion indices must stay distinct")
		seen[sn.Index] = true
	}

	// The ordered child fetch driving consolidation and numbered selection
	// must agree with the graph's order, call after call.
	first, err := ins.childNodes(ctx, nil)
	require.NoError(t, err)
	again, err := ins.childNodes(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, graph.Roots(), nodeIDs(first))
	assert.Equal(t, nodeIDs(first), nodeIDs(again))
}

func TestInserter_SummariesRefreshedAfterDeepInsert(t *testing.T) {
	model := llm.NewMockModel("old summary")
	graph, ins := newTestFixture(t, model, 2)
	ctx := context.Background()

	require.NoError(t, ins.Insert(ctx, schema.NewNode("A")))
	require.NoError(t, ins.Insert(ctx, schema.NewNode("B")))
	require.NoError(t, ins.Insert(ctx, schema.NewNode("C")))

	// Later predictions return a new summary; route the next insert into
	// candidate 1 and expect the updated text to bubble up.
	model.Default = "fresh summary"
	model.Respond("new piece of information", "1")
	require.NoError(t, ins.Insert(ctx, schema.NewNode("D")))

	firstRoot, ok := graph.Node(graph.Roots()[0])
	require.True(t, ok)
	assert.Equal(t, "fresh summary", firstRoot.Text)
}
