package query

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/smallnest/ragkit/budget"
	"github.com/smallnest/ragkit/llm"
	ragkitlog "github.com/smallnest/ragkit/log"
	"github.com/smallnest/ragkit/prompt"
	"github.com/smallnest/ragkit/response"
	"github.com/smallnest/ragkit/schema"
)

// Tool is a named query engine the sub-question engine can delegate to.
type Tool struct {
	Name        string
	Description string
	Engine      Engine
}

// SubQuestion is one decomposed question routed to a named tool.
type SubQuestion struct {
	ToolName string
	Question string
}

// SubQuestionEngine decomposes a query into per-tool sub-questions, answers
// them concurrently, and synthesizes a final answer over the sub-answers.
// Sub-answers are aggregated only after every branch has completed, in the
// order the sub-questions were generated.
type SubQuestionEngine struct {
	tools     []Tool
	planner   *budget.Planner
	predictor *llm.Predictor
	subQTmpl  *prompt.Template
	textQA    *prompt.Template
	refine    *prompt.Template
	logger    ragkitlog.Logger
}

var _ Engine = (*SubQuestionEngine)(nil)

// SubQuestionOption configures a SubQuestionEngine.
type SubQuestionOption func(*SubQuestionEngine)

// WithSubQuestionTemplate overrides the decomposition template (declared
// variables: tools_str, query_str).
func WithSubQuestionTemplate(tmpl *prompt.Template) SubQuestionOption {
	return func(e *SubQuestionEngine) {
		e.subQTmpl = tmpl
	}
}

// WithSubQuestionLogger sets the engine's logger.
func WithSubQuestionLogger(logger ragkitlog.Logger) SubQuestionOption {
	return func(e *SubQuestionEngine) {
		e.logger = logger
	}
}

// NewSubQuestionEngine creates a sub-question engine over the given tools.
func NewSubQuestionEngine(planner *budget.Planner, predictor *llm.Predictor, tools []Tool, opts ...SubQuestionOption) (*SubQuestionEngine, error) {
	if planner == nil {
		return nil, fmt.Errorf("query: planner is required")
	}
	if predictor == nil {
		return nil, fmt.Errorf("query: predictor is required")
	}
	if len(tools) == 0 {
		return nil, fmt.Errorf("query: at least one tool is required")
	}
	for _, tool := range tools {
		if tool.Name == "" || tool.Engine == nil {
			return nil, fmt.Errorf("query: every tool needs a name and an engine")
		}
	}
	e := &SubQuestionEngine{
		tools:     tools,
		planner:   planner,
		predictor: predictor,
		subQTmpl:  prompt.DefaultSubQuestion,
		textQA:    prompt.DefaultTextQA,
		refine:    prompt.DefaultRefine,
		logger:    ragkitlog.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Query implements Engine.
func (e *SubQuestionEngine) Query(ctx context.Context, bundle schema.QueryBundle) (string, error) {
	subQuestions, err := e.generateSubQuestions(ctx, bundle)
	if err != nil {
		return "", err
	}
	if len(subQuestions) == 0 {
		return "", fmt.Errorf("query: no sub-questions generated for %q", bundle.QueryStr)
	}

	// Fan out one branch per sub-question; branches share nothing but the
	// indexed result slot. Wait joins all branches before aggregation.
	answers := make([]string, len(subQuestions))
	g, gctx := errgroup.WithContext(ctx)
	for i, sq := range subQuestions {
		i, sq := i, sq
		g.Go(func() error {
			tool := e.toolByName(sq.ToolName)
			answer, err := tool.Engine.Query(gctx, schema.NewQueryBundle(sq.Question))
			if err != nil {
				return fmt.Errorf("sub-question %q via %s: %w", sq.Question, tool.Name, err)
			}
			answers[i] = answer
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	chunks := make([]string, len(subQuestions))
	for i, sq := range subQuestions {
		chunks[i] = fmt.Sprintf("Sub question: %s\nResponse: %s", sq.Question, answers[i])
	}

	builder, err := response.NewBuilder(e.planner, e.predictor, e.textQA, e.refine, response.WithTextChunks(chunks))
	if err != nil {
		return "", err
	}
	return builder.GetResponse(ctx, bundle.QueryStr, response.ModeCompact)
}

// generateSubQuestions predicts the decomposition and parses one
// "tool_name: sub question" per line. Lines naming unknown tools are
// dropped with a debug log.
func (e *SubQuestionEngine) generateSubQuestions(ctx context.Context, bundle schema.QueryBundle) ([]SubQuestion, error) {
	var toolLines []string
	for _, tool := range e.tools {
		toolLines = append(toolLines, fmt.Sprintf("%s: %s", tool.Name, tool.Description))
	}

	responseText, _, err := e.predictor.Predict(ctx, e.subQTmpl, map[string]string{
		"tools_str": strings.Join(toolLines, "\n"),
		"query_str": bundle.QueryStr,
	})
	if err != nil {
		return nil, err
	}

	var out []SubQuestion
	for _, line := range strings.Split(responseText, "\n") {
		name, question, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		question = strings.TrimSpace(question)
		if question == "" || e.toolByName(name) == nil {
			e.logger.Debug("dropping unroutable sub-question line %q", line)
			continue
		}
		out = append(out, SubQuestion{ToolName: name, Question: question})
	}
	return out, nil
}

func (e *SubQuestionEngine) toolByName(name string) *Tool {
	for i := range e.tools {
		if e.tools[i].Name == name {
			return &e.tools[i]
		}
	}
	return nil
}
