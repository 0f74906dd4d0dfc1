package query

import (
	"context"
	"fmt"

	"github.com/smallnest/ragkit/budget"
	"github.com/smallnest/ragkit/llm"
	ragkitlog "github.com/smallnest/ragkit/log"
	"github.com/smallnest/ragkit/prompt"
	"github.com/smallnest/ragkit/response"
	"github.com/smallnest/ragkit/schema"
)

// Engine answers a natural-language query. Implemented by tree.Index and by
// the sub-question engine, so engines compose.
type Engine interface {
	Query(ctx context.Context, bundle schema.QueryBundle) (string, error)
}

// Runner resolves a query over a set of nodes. A node whose RefDocID names a
// registered nested index is answered by recursively querying that index and
// folding the sub-answer into the running response; any other node
// contributes its text directly as a context chunk.
type Runner struct {
	planner   *budget.Planner
	predictor *llm.Predictor
	registry  map[string]Engine
	filter    KeywordFilter
	textQA    *prompt.Template
	refine    *prompt.Template
	logger    ragkitlog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithFilter sets the keyword filter applied to candidate nodes.
func WithFilter(f KeywordFilter) RunnerOption {
	return func(r *Runner) {
		r.filter = f
	}
}

// WithTemplates overrides the answer and refine templates.
func WithTemplates(textQA, refine *prompt.Template) RunnerOption {
	return func(r *Runner) {
		r.textQA = textQA
		r.refine = refine
	}
}

// WithLogger sets the runner's logger.
func WithLogger(logger ragkitlog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a query runner.
func NewRunner(planner *budget.Planner, predictor *llm.Predictor, opts ...RunnerOption) (*Runner, error) {
	if planner == nil {
		return nil, fmt.Errorf("query: planner is required")
	}
	if predictor == nil {
		return nil, fmt.Errorf("query: predictor is required")
	}
	r := &Runner{
		planner:   planner,
		predictor: predictor,
		registry:  make(map[string]Engine),
		textQA:    prompt.DefaultTextQA,
		refine:    prompt.DefaultRefine,
		logger:    ragkitlog.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Register makes docID resolvable as a nested index: nodes whose RefDocID
// equals docID delegate to engine instead of contributing raw text.
func (r *Runner) Register(docID string, engine Engine) {
	r.registry[docID] = engine
}

// QueryNodes folds an answer over the nodes in order. Filtered-out nodes are
// skipped; if every node is filtered out the error wraps
// response.ErrNoTextChunks.
func (r *Runner) QueryNodes(ctx context.Context, bundle schema.QueryBundle, nodes []*schema.Node) (string, error) {
	builder, err := response.NewBuilder(r.planner, r.predictor, r.textQA, r.refine)
	if err != nil {
		return "", err
	}

	answer := ""
	answered := false
	for _, node := range nodes {
		if !r.filter.Match(node.Text) {
			r.logger.Debug("node %s filtered out by keywords", node.ID)
			continue
		}

		chunk := node.Text
		if engine, ok := r.registry[node.RefDocID]; ok {
			sub, err := engine.Query(ctx, bundle)
			if err != nil {
				return "", fmt.Errorf("query nested index %s: %w", node.RefDocID, err)
			}
			chunk = sub
		}

		answer, err = builder.GetResponseOverChunks(ctx, bundle.QueryStr, []string{chunk}, answer)
		if err != nil {
			return "", err
		}
		answered = true
	}

	if !answered {
		return "", fmt.Errorf("query: all nodes filtered out: %w", response.ErrNoTextChunks)
	}
	return answer, nil
}
