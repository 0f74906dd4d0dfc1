package tree

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/smallnest/ragkit/budget"
	"github.com/smallnest/ragkit/docstore"
	"github.com/smallnest/ragkit/index"
	"github.com/smallnest/ragkit/llm"
	"github.com/smallnest/ragkit/prompt"
	"github.com/smallnest/ragkit/response"
	"github.com/smallnest/ragkit/schema"
)

// Index is a hierarchical summary tree over text nodes. Leaves hold the
// original text chunks; every non-leaf node holds an LLM summary of its
// children. Queries descend from the roots by numbered selection and answer
// from the selected leaf.
type Index struct {
	id      string
	summary string

	graph     *index.Graph
	store     docstore.Store
	predictor *llm.Predictor
	planner   *budget.Planner
	inserter  *Inserter
	retriever *Retriever

	textQA *prompt.Template
	refine *prompt.Template
}

var _ schema.IndexStruct = (*Index)(nil)

// NewIndex creates an empty tree index. Inserter options (fan-out limit,
// templates, selector) apply to both incremental inserts and bulk builds.
func NewIndex(store docstore.Store, predictor *llm.Predictor, planner *budget.Planner, opts ...InserterOption) (*Index, error) {
	graph := index.NewGraph()
	inserter, err := NewInserter(graph, store, predictor, planner, opts...)
	if err != nil {
		return nil, err
	}
	return &Index{
		id:        uuid.NewString(),
		graph:     graph,
		store:     store,
		predictor: predictor,
		planner:   planner,
		inserter:  inserter,
		retriever: NewRetriever(graph, store, predictor, planner),
		textQA:    prompt.DefaultTextQA,
		refine:    prompt.DefaultRefine,
	}, nil
}

// IndexID implements schema.IndexStruct.
func (idx *Index) IndexID() string { return idx.id }

// Summary implements schema.IndexStruct. When no summary has been set it
// falls back to the concatenated root texts.
func (idx *Index) Summary() string {
	if idx.summary != "" {
		return idx.summary
	}
	var parts []string
	for _, id := range idx.graph.Roots() {
		if node, ok := idx.graph.Node(id); ok {
			parts = append(parts, node.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// SetSummary sets an explicit index summary, used when this index is nested
// inside another one.
func (idx *Index) SetSummary(summary string) { idx.summary = summary }

// Graph exposes the underlying tree structure, e.g. for visualization.
func (idx *Index) Graph() *index.Graph { return idx.graph }

// Inserter exposes the incremental inserter.
func (idx *Index) Inserter() *Inserter { return idx.inserter }

// BuildFromNodes builds the tree bottom-up: consecutive groups of up to the
// fan-out limit are summarized into a parent, layer by layer, until a layer
// fits within the limit. With few enough leaves no summary layer is built
// and the leaves themselves become roots.
func (idx *Index) BuildFromNodes(ctx context.Context, leaves []*schema.Node) error {
	if len(leaves) == 0 {
		return fmt.Errorf("tree: cannot build an index from zero nodes")
	}
	for _, leaf := range leaves {
		idx.graph.AddNode(leaf)
	}
	if err := idx.store.AddNodes(ctx, leaves); err != nil {
		return fmt.Errorf("store leaf nodes: %w", err)
	}

	current := leaves
	for len(current) > idx.inserter.numChildren {
		parents, err := idx.buildParentLayer(ctx, current)
		if err != nil {
			return err
		}
		current = parents
	}
	for _, root := range current {
		idx.graph.InsertUnderParent(root, "")
	}
	return nil
}

func (idx *Index) buildParentLayer(ctx context.Context, children []*schema.Node) ([]*schema.Node, error) {
	numChildren := idx.inserter.numChildren
	var parents []*schema.Node
	for start := 0; start < len(children); start += numChildren {
		end := min(start+numChildren, len(children))
		group := children[start:end]

		summary, err := idx.inserter.summarize(ctx, group)
		if err != nil {
			return nil, err
		}
		parent := schema.NewNode(summary)
		idx.graph.InsertWithChildren(parent, group)
		parents = append(parents, parent)
	}
	if err := idx.store.AddNodes(ctx, parents); err != nil {
		return nil, fmt.Errorf("store summary nodes: %w", err)
	}
	// Reparenting set the children's parent ids; the stored copies must
	// carry them too.
	if err := idx.store.AddNodes(ctx, children); err != nil {
		return nil, fmt.Errorf("store reparented nodes: %w", err)
	}
	return parents, nil
}

// Insert adds nodes to an existing tree, one at a time.
func (idx *Index) Insert(ctx context.Context, nodes ...*schema.Node) error {
	return idx.inserter.Insert(ctx, nodes...)
}

// Query descends to the most relevant leaf and synthesizes an answer
// from its text.
func (idx *Index) Query(ctx context.Context, bundle schema.QueryBundle) (string, error) {
	leaf, err := idx.retriever.Retrieve(ctx, bundle)
	if err != nil {
		return "", err
	}
	builder, err := response.NewBuilder(idx.planner, idx.predictor, idx.textQA, idx.refine)
	if err != nil {
		return "", err
	}
	return builder.GetResponseOverChunks(ctx, bundle.QueryStr, []string{leaf.Text}, "")
}
