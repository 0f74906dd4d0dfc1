package tree

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/ragkit/budget"
	"github.com/smallnest/ragkit/docstore"
	"github.com/smallnest/ragkit/index"
	"github.com/smallnest/ragkit/llm"
	ragkitlog "github.com/smallnest/ragkit/log"
	"github.com/smallnest/ragkit/prompt"
	"github.com/smallnest/ragkit/schema"
)

// DefaultNumChildren is the default fan-out limit.
const DefaultNumChildren = 10

// Inserter inserts text nodes into a tree index, descending to the best
// parent by LLM selection and consolidating child sets that exceed the
// fan-out limit. Summaries along the path to the insertion point are
// recomputed on the way back up, so they are never stale after Insert
// returns.
//
// Inserter serializes writers internally; read-only queries against the
// graph may run concurrently with each other but not with an insert.
type Inserter struct {
	mu sync.Mutex

	graph       *index.Graph
	store       docstore.Store
	predictor   *llm.Predictor
	planner     *budget.Planner
	selector    NodeSelector
	numChildren int
	summaryTmpl *prompt.Template
	insertTmpl  *prompt.Template
	logger      ragkitlog.Logger
}

// InserterOption configures an Inserter.
type InserterOption func(*Inserter)

// WithNumChildren sets the fan-out limit. Must be at least 2.
func WithNumChildren(n int) InserterOption {
	return func(ins *Inserter) {
		ins.numChildren = n
	}
}

// WithSummaryTemplate overrides the summary template (declared variable:
// context_str).
func WithSummaryTemplate(tmpl *prompt.Template) InserterOption {
	return func(ins *Inserter) {
		ins.summaryTmpl = tmpl
	}
}

// WithInsertTemplate overrides the selection template (declared variables:
// num_chunks, context_list, new_chunk_text).
func WithInsertTemplate(tmpl *prompt.Template) InserterOption {
	return func(ins *Inserter) {
		ins.insertTmpl = tmpl
	}
}

// WithSelector swaps the child-selection strategy, e.g. for an
// embedding-similarity selector. Defaults to the LLM numbered selection.
func WithSelector(sel NodeSelector) InserterOption {
	return func(ins *Inserter) {
		ins.selector = sel
	}
}

// WithLogger sets the inserter's logger.
func WithLogger(logger ragkitlog.Logger) InserterOption {
	return func(ins *Inserter) {
		ins.logger = logger
	}
}

// NewInserter creates an inserter. Construction fails on invalid parameters;
// nothing here can fail later at insert time.
func NewInserter(graph *index.Graph, store docstore.Store, predictor *llm.Predictor, planner *budget.Planner, opts ...InserterOption) (*Inserter, error) {
	if graph == nil {
		return nil, fmt.Errorf("tree: graph is required")
	}
	if store == nil {
		return nil, fmt.Errorf("tree: docstore is required")
	}
	if predictor == nil {
		return nil, fmt.Errorf("tree: predictor is required")
	}
	if planner == nil {
		return nil, fmt.Errorf("tree: planner is required")
	}

	ins := &Inserter{
		graph:       graph,
		store:       store,
		predictor:   predictor,
		planner:     planner,
		numChildren: DefaultNumChildren,
		summaryTmpl: prompt.DefaultSummary,
		insertTmpl:  prompt.DefaultInsert,
		logger:      ragkitlog.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(ins)
	}

	if ins.numChildren < 2 {
		return nil, fmt.Errorf("tree: invalid number of children %d, must be at least 2", ins.numChildren)
	}
	if ins.selector == nil {
		ins.selector = NewLLMSelector(predictor, planner, ins.insertTmpl)
	}
	return ins, nil
}

// NumChildren returns the configured fan-out limit.
func (ins *Inserter) NumChildren() int {
	return ins.numChildren
}

// Insert adds nodes to the tree one at a time, starting each descent at the
// virtual root. Any prediction failure aborts the insertion and leaves both
// the graph and the docstore in the state immediately prior to the failing
// call; the node is only persisted once the graph has placed it.
func (ins *Inserter) Insert(ctx context.Context, nodes ...*schema.Node) error {
	ins.mu.Lock()
	defer ins.mu.Unlock()

	for _, n := range nodes {
		if err := ins.insertNode(ctx, n, nil); err != nil {
			return err
		}
	}
	return nil
}

// childNodes fetches the ordered child list of parent (nil parent = roots).
func (ins *Inserter) childNodes(ctx context.Context, parent *schema.Node) ([]*schema.Node, error) {
	parentID := ""
	if parent != nil {
		parentID = parent.ID
	}
	ids := ins.graph.Children(parentID)
	dict, err := ins.store.GetNodeDict(ctx, ids)
	if err != nil {
		return nil, err
	}
	return schema.SortNodes(dict), nil
}

func (ins *Inserter) insertNode(ctx context.Context, node *schema.Node, parent *schema.Node) error {
	children, err := ins.childNodes(ctx, parent)
	if err != nil {
		return err
	}

	switch {
	case len(children) == 0:
		// Empty level: the node becomes the first child (or root).
		if err := ins.insertUnderParentAndConsolidate(ctx, node, parent); err != nil {
			return err
		}
	case len(ins.graph.Children(children[0].ID)) == 0:
		// Leaf level reached: insert here and keep the fan-out in bounds.
		if err := ins.insertUnderParentAndConsolidate(ctx, node, parent); err != nil {
			return err
		}
	default:
		idx, ok, err := ins.selector.Select(ctx, children, node.Text)
		if err != nil {
			return err
		}
		if !ok {
			if err := ins.insertUnderParentAndConsolidate(ctx, node, parent); err != nil {
				return err
			}
		} else if err := ins.insertNode(ctx, node, children[idx]); err != nil {
			return err
		}
	}

	// Bubble a fresh summary up the tree so no summary is stale after the
	// top-level insert returns.
	if parent != nil {
		return ins.updateSummary(ctx, parent)
	}
	return nil
}

// insertUnderParentAndConsolidate inserts node under parent and restores the
// fan-out invariant. A full parent is consolidated before the insertion;
// if the insertion itself pushes the child count over the limit, the level
// is consolidated again.
func (ins *Inserter) insertUnderParentAndConsolidate(ctx context.Context, node *schema.Node, parent *schema.Node) error {
	parentID := ""
	if parent != nil {
		parentID = parent.ID
	}

	if len(ins.graph.Children(parentID)) >= ins.numChildren {
		if err := ins.consolidate(ctx, parent); err != nil {
			return err
		}
	}

	ins.graph.InsertUnderParent(node, parentID)

	// Persist only after the graph has assigned the insertion index and
	// parent; the stored copy must carry the same ordering key the graph
	// holds, and a failed prediction above must not leave an orphan row.
	if err := ins.store.AddNodes(ctx, []*schema.Node{node}); err != nil {
		return fmt.Errorf("store node: %w", err)
	}

	for len(ins.graph.Children(parentID)) > ins.numChildren {
		if err := ins.consolidate(ctx, parent); err != nil {
			return err
		}
	}
	return nil
}

// consolidate splits parent's full ordered child list into two halves,
// summarizes each half, and replaces the child set with the two new summary
// nodes. The absorbed children stay reachable as descendants of the new
// summaries. Both summaries are predicted before any mutation, so a failed
// prediction leaves the graph untouched.
func (ins *Inserter) consolidate(ctx context.Context, parent *schema.Node) error {
	parentID := ""
	if parent != nil {
		parentID = parent.ID
	}

	children, err := ins.childNodes(ctx, parent)
	if err != nil {
		return err
	}
	if len(children) < 2 {
		return nil
	}

	half1 := children[:len(children)/2]
	half2 := children[len(children)/2:]

	summary1, err := ins.summarize(ctx, half1)
	if err != nil {
		return err
	}
	summary2, err := ins.summarize(ctx, half2)
	if err != nil {
		return err
	}

	node1 := schema.NewNode(summary1)
	node2 := schema.NewNode(summary2)

	ins.graph.InsertWithChildren(node1, half1)
	ins.graph.InsertWithChildren(node2, half2)
	ins.graph.ClearChildren(parentID)
	ins.graph.InsertUnderParent(node1, parentID)
	ins.graph.InsertUnderParent(node2, parentID)

	if err := ins.store.AddNodes(ctx, append([]*schema.Node{node1, node2}, half1...)); err != nil {
		return fmt.Errorf("store summary nodes: %w", err)
	}
	if err := ins.store.AddNodes(ctx, half2); err != nil {
		return fmt.Errorf("store summary nodes: %w", err)
	}

	ins.logger.Debug("consolidated %d children under %q into 2 summary nodes", len(children), parentID)
	return nil
}

// summarize predicts a summary over the concatenated text of nodes, bounded
// by the prompt budget.
func (ins *Inserter) summarize(ctx context.Context, nodes []*schema.Node) (string, error) {
	text, err := ins.planner.GetTextFromNodes(ins.summaryTmpl, nodes)
	if err != nil {
		return "", err
	}
	summary, _, err := ins.predictor.Predict(ctx, ins.summaryTmpl, map[string]string{
		"context_str": text,
	})
	if err != nil {
		return "", err
	}
	return summary, nil
}

// updateSummary recomputes parent's summary from its current children. The
// prediction happens before the text is overwritten.
func (ins *Inserter) updateSummary(ctx context.Context, parent *schema.Node) error {
	children, err := ins.childNodes(ctx, parent)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}

	summary, err := ins.summarize(ctx, children)
	if err != nil {
		return err
	}

	parent.Text = summary
	// The graph may hold its own copy when the docstore is persistent.
	if gn, ok := ins.graph.Node(parent.ID); ok && gn != parent {
		gn.Text = summary
	}
	if err := ins.store.AddNodes(ctx, []*schema.Node{parent}); err != nil {
		return fmt.Errorf("store updated summary: %w", err)
	}
	return nil
}
