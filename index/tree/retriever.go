package tree

import (
	"context"
	"fmt"
	"strconv"

	"github.com/smallnest/ragkit/budget"
	"github.com/smallnest/ragkit/docstore"
	"github.com/smallnest/ragkit/index"
	"github.com/smallnest/ragkit/llm"
	ragkitlog "github.com/smallnest/ragkit/log"
	"github.com/smallnest/ragkit/prompt"
	"github.com/smallnest/ragkit/schema"
)

// Retriever walks the tree from the roots to a leaf, at each level asking
// the model which child summary is most relevant to the query.
type Retriever struct {
	graph      *index.Graph
	store      docstore.Store
	predictor  *llm.Predictor
	planner    *budget.Planner
	selectTmpl *prompt.Template
	logger     ragkitlog.Logger
}

// NewRetriever creates a select-leaf retriever. The select template must
// declare num_chunks, context_list and query_str.
func NewRetriever(graph *index.Graph, store docstore.Store, predictor *llm.Predictor, planner *budget.Planner) *Retriever {
	return &Retriever{
		graph:      graph,
		store:      store,
		predictor:  predictor,
		planner:    planner,
		selectTmpl: prompt.DefaultTreeSelect,
		logger:     ragkitlog.GetDefaultLogger(),
	}
}

// Retrieve descends to the leaf most relevant to the query.
func (r *Retriever) Retrieve(ctx context.Context, bundle schema.QueryBundle) (*schema.Node, error) {
	rootIDs := r.graph.Roots()
	if len(rootIDs) == 0 {
		return nil, fmt.Errorf("tree: cannot retrieve from an empty index")
	}
	return r.descend(ctx, bundle, rootIDs, 0)
}

func (r *Retriever) descend(ctx context.Context, bundle schema.QueryBundle, ids []string, level int) (*schema.Node, error) {
	dict, err := r.store.GetNodeDict(ctx, ids)
	if err != nil {
		return nil, err
	}
	candidates := schema.SortNodes(dict)

	selected := candidates[0]
	if len(candidates) > 1 {
		numbered, err := r.planner.GetNumberedTextFromNodes(r.selectTmpl, candidates)
		if err != nil {
			return nil, err
		}
		responseText, _, err := r.predictor.Predict(ctx, r.selectTmpl, map[string]string{
			"num_chunks":   strconv.Itoa(len(candidates)),
			"context_list": numbered,
			"query_str":    bundle.QueryStr,
		})
		if err != nil {
			return nil, err
		}
		if number, ok := ExtractNumber(responseText); ok && number >= 1 && number <= len(candidates) {
			selected = candidates[number-1]
		} else {
			r.logger.Debug("[level %d] selection %q unusable, descending into first child",
				level, schema.TruncateText(responseText, 50))
		}
	}

	r.logger.Debug("[level %d] selected node: %s", level, schema.TruncateText(selected.Text, 50))

	childIDs := r.graph.Children(selected.ID)
	if len(childIDs) == 0 {
		return selected, nil
	}
	return r.descend(ctx, bundle, childIDs, level+1)
}
