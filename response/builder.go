package response

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/ragkit/budget"
	"github.com/smallnest/ragkit/llm"
	ragkitlog "github.com/smallnest/ragkit/log"
	"github.com/smallnest/ragkit/prompt"
	"github.com/smallnest/ragkit/schema"
)

// Mode selects how accumulated chunks are turned into an answer.
type Mode string

const (
	// ModeDefault runs the create-and-refine fold over all chunks as-is.
	ModeDefault Mode = "default"
	// ModeCompact first merges chunks up to the prompt budget, then runs
	// the same fold over fewer, larger chunks.
	ModeCompact Mode = "compact"
	// ModeTreeSummarize is reserved and not supported.
	ModeTreeSummarize Mode = "tree_summarize"
)

// ErrUnsupportedMode is returned for modes the builder cannot run.
var ErrUnsupportedMode = errors.New("response: unsupported response mode")

// ErrNoTextChunks is returned when a response is requested over an empty
// chunk list.
var ErrNoTextChunks = errors.New("response: no text chunks to respond over")

// Builder turns a query and a sequence of text chunks into a final answer,
// calling the predictor once per prompt-sized sub-chunk. A builder's chunk
// state lives for a single query or insertion call; it is not safe for
// concurrent use.
type Builder struct {
	planner    *budget.Planner
	predictor  *llm.Predictor
	textQA     *prompt.Template
	refine     *prompt.Template
	logger     ragkitlog.Logger
	textChunks []string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the builder's logger.
func WithLogger(logger ragkitlog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithTextChunks seeds the builder's accumulated chunks.
func WithTextChunks(chunks []string) BuilderOption {
	return func(b *Builder) {
		b.textChunks = chunks
	}
}

// NewBuilder creates a response builder. The QA template must declare
// context_str and query_str; the refine template must declare query_str,
// existing_answer and context_msg, since the existing answer is a bound
// variable in its budget.
func NewBuilder(planner *budget.Planner, predictor *llm.Predictor, textQA, refine *prompt.Template, opts ...BuilderOption) (*Builder, error) {
	if planner == nil {
		return nil, fmt.Errorf("response: planner is required")
	}
	if predictor == nil {
		return nil, fmt.Errorf("response: predictor is required")
	}
	if err := requireVariables(textQA, "context_str", "query_str"); err != nil {
		return nil, fmt.Errorf("response: text QA template: %w", err)
	}
	if err := requireVariables(refine, "query_str", "existing_answer", "context_msg"); err != nil {
		return nil, fmt.Errorf("response: refine template: %w", err)
	}

	b := &Builder{
		planner:   planner,
		predictor: predictor,
		textQA:    textQA,
		refine:    refine,
		logger:    ragkitlog.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func requireVariables(tmpl *prompt.Template, names ...string) error {
	if tmpl == nil {
		return fmt.Errorf("template is required")
	}
	declared := make(map[string]bool)
	for _, v := range tmpl.Variables() {
		declared[v] = true
	}
	for _, name := range names {
		if !declared[name] {
			return fmt.Errorf("missing required variable %q", name)
		}
	}
	return nil
}

// AddTextChunks appends chunks to the builder's accumulated state.
func (b *Builder) AddTextChunks(chunks ...string) {
	b.textChunks = append(b.textChunks, chunks...)
}

// Reset clears the accumulated chunks.
func (b *Builder) Reset() {
	b.textChunks = nil
}

// GiveResponseSingle answers the query from one text chunk. The chunk is
// split to fit the QA prompt; the first sub-chunk gets a fresh answer, each
// further sub-chunk refines it.
func (b *Builder) GiveResponseSingle(ctx context.Context, queryStr, textChunk string) (string, error) {
	qaTemplate := b.textQA.Partial(map[string]string{"query_str": queryStr})
	split, err := b.planner.GetTextSplitterGivenPrompt(qaTemplate, 1)
	if err != nil {
		return "", err
	}

	subs := split.SplitText(textChunk)
	if len(subs) == 0 {
		// A whitespace-only chunk splits to nothing; answering from it
		// is as impossible as answering from no chunks at all.
		return "", ErrNoTextChunks
	}

	var response string
	haveResponse := false
	for _, sub := range subs {
		if !haveResponse {
			response, _, err = b.predictor.Predict(ctx, b.textQA, map[string]string{
				"query_str":   queryStr,
				"context_str": sub,
			})
			if err != nil {
				return "", err
			}
			haveResponse = true
			b.logger.Debug("initial response: %s", schema.TruncateText(response, 200))
		} else {
			response, err = b.RefineResponseSingle(ctx, response, queryStr, sub)
			if err != nil {
				return "", err
			}
		}
	}
	return response, nil
}

// RefineResponseSingle updates an existing answer with one additional text
// chunk. The chunk is split to fit the refine prompt, which reserves room
// for the existing answer as a bound variable.
func (b *Builder) RefineResponseSingle(ctx context.Context, existingAnswer, queryStr, textChunk string) (string, error) {
	b.logger.Debug("refine context: %s", schema.TruncateText(textChunk, 50))

	// The refine budget must reserve room for the existing answer, so it is
	// bound into the template before sizing the splitter.
	refineTemplate := b.refine.Partial(map[string]string{
		"query_str":       queryStr,
		"existing_answer": existingAnswer,
	})
	split, err := b.planner.GetTextSplitterGivenPrompt(refineTemplate, 1)
	if err != nil {
		return "", err
	}

	response := existingAnswer
	for _, sub := range split.SplitText(textChunk) {
		response, _, err = b.predictor.Predict(ctx, b.refine, map[string]string{
			"query_str":       queryStr,
			"existing_answer": response,
			"context_msg":     sub,
		})
		if err != nil {
			return "", err
		}
		b.logger.Debug("refined response: %s", schema.TruncateText(response, 200))
	}
	return response, nil
}

// GetResponseOverChunks folds left-to-right over chunks: the first chunk is
// answered fresh unless prevResponse is non-empty, every later chunk refines
// the running answer. An empty chunk list is an error.
func (b *Builder) GetResponseOverChunks(ctx context.Context, queryStr string, textChunks []string, prevResponse string) (string, error) {
	if len(textChunks) == 0 {
		return "", ErrNoTextChunks
	}

	response := prevResponse
	haveResponse := prevResponse != ""
	for _, chunk := range textChunks {
		var err error
		if !haveResponse {
			response, err = b.GiveResponseSingle(ctx, queryStr, chunk)
			haveResponse = true
		} else {
			response, err = b.RefineResponseSingle(ctx, response, queryStr, chunk)
		}
		if err != nil {
			return "", err
		}
	}
	return response, nil
}

// GetResponse answers the query over the accumulated chunks in the given
// mode. ModeTreeSummarize fails immediately with ErrUnsupportedMode and
// performs no work.
func (b *Builder) GetResponse(ctx context.Context, queryStr string, mode Mode) (string, error) {
	return b.GetResponseWithPrev(ctx, queryStr, "", mode)
}

// GetResponseWithPrev is GetResponse continuing from a previous answer.
func (b *Builder) GetResponseWithPrev(ctx context.Context, queryStr, prevResponse string, mode Mode) (string, error) {
	switch mode {
	case ModeDefault:
		return b.GetResponseOverChunks(ctx, queryStr, b.textChunks, prevResponse)
	case ModeCompact:
		qaTemplate := b.textQA.Partial(map[string]string{"query_str": queryStr})
		compacted, err := b.planner.CompactTextChunks(qaTemplate, b.textChunks)
		if err != nil {
			return "", err
		}
		return b.GetResponseOverChunks(ctx, queryStr, compacted, prevResponse)
	case ModeTreeSummarize:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}
}
