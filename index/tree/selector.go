package tree

import (
	"context"
	"regexp"
	"strconv"

	"github.com/smallnest/ragkit/budget"
	"github.com/smallnest/ragkit/llm"
	ragkitlog "github.com/smallnest/ragkit/log"
	"github.com/smallnest/ragkit/prompt"
	"github.com/smallnest/ragkit/schema"
)

// NodeSelector picks which candidate subtree best accommodates a new piece
// of text. Implementations return the 0-based candidate index; ok=false
// means no usable selection was made and the caller should fall back to
// inserting directly under the current parent. Only upstream failures are
// errors; an unparseable selection is not.
type NodeSelector interface {
	Select(ctx context.Context, candidates []*schema.Node, newText string) (idx int, ok bool, err error)
}

var leadingNumberRe = regexp.MustCompile(`\d+`)

// ExtractNumber parses the first integer from free-form model output.
func ExtractNumber(response string) (int, bool) {
	m := leadingNumberRe.FindString(response)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// LLMSelector asks the model to choose among a numbered listing of candidate
// summaries and parses the leading integer out of its free-text answer.
type LLMSelector struct {
	predictor *llm.Predictor
	planner   *budget.Planner
	template  *prompt.Template
	logger    ragkitlog.Logger
}

var _ NodeSelector = (*LLMSelector)(nil)

// NewLLMSelector creates a selector using the insert template (declared
// variables: num_chunks, context_list, new_chunk_text).
func NewLLMSelector(predictor *llm.Predictor, planner *budget.Planner, template *prompt.Template) *LLMSelector {
	return &LLMSelector{
		predictor: predictor,
		planner:   planner,
		template:  template,
		logger:    ragkitlog.GetDefaultLogger(),
	}
}

// Select runs the numbered-selection prompt. The candidate listing uses the
// same order as candidates, so the parsed 1-based number maps back directly.
func (s *LLMSelector) Select(ctx context.Context, candidates []*schema.Node, newText string) (int, bool, error) {
	numbered, err := s.planner.GetNumberedTextFromNodes(s.template, candidates)
	if err != nil {
		return 0, false, err
	}

	response, _, err := s.predictor.Predict(ctx, s.template, map[string]string{
		"num_chunks":     strconv.Itoa(len(candidates)),
		"context_list":   numbered,
		"new_chunk_text": newText,
	})
	if err != nil {
		return 0, false, err
	}

	number, parsed := ExtractNumber(response)
	if !parsed || number < 1 || number > len(candidates) {
		// Malformed selection is recovered locally, never surfaced.
		s.logger.Debug("selection %q unusable for %d candidates, falling back to direct insert",
			schema.TruncateText(response, 50), len(candidates))
		return 0, false, nil
	}
	return number - 1, true, nil
}
