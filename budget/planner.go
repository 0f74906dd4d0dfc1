package budget

import (
	"fmt"
	"strings"

	"github.com/smallnest/ragkit/prompt"
	"github.com/smallnest/ragkit/schema"
	"github.com/smallnest/ragkit/splitter"
	"github.com/smallnest/ragkit/tokenizer"
)

// SizingError reports that a prompt's fixed text plus the reserved output
// tokens leave no room for any input text under the context window.
type SizingError struct {
	ContextWindow int
	PromptTokens  int
	NumOutput     int
}

func (e *SizingError) Error() string {
	return fmt.Sprintf(
		"prompt does not fit: %d prompt tokens + %d reserved output tokens exceed a %d token context window",
		e.PromptTokens, e.NumOutput, e.ContextWindow,
	)
}

// Planner computes how much text fits under a model's context window given a
// prompt template and reserved output tokens, and derives splitters and
// chunk merges from that budget.
type Planner struct {
	contextWindow   int
	numOutput       int
	maxChunkOverlap int
	separator       string
	tokenizer       tokenizer.Tokenizer
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithChunkOverlap sets the maximum overlap between derived chunks.
func WithChunkOverlap(overlap int) PlannerOption {
	return func(p *Planner) {
		p.maxChunkOverlap = overlap
	}
}

// WithSeparator sets the separator used for splitting and joining.
func WithSeparator(sep string) PlannerOption {
	return func(p *Planner) {
		p.separator = sep
	}
}

// NewPlanner creates a planner for a model with the given context window,
// reserving numOutput tokens for the completion.
func NewPlanner(contextWindow, numOutput int, tk tokenizer.Tokenizer, opts ...PlannerOption) (*Planner, error) {
	if contextWindow <= 0 {
		return nil, fmt.Errorf("context window must be positive, got %d", contextWindow)
	}
	if numOutput < 0 {
		return nil, fmt.Errorf("reserved output tokens must not be negative, got %d", numOutput)
	}
	if numOutput >= contextWindow {
		return nil, fmt.Errorf("reserved output tokens (%d) must be below the context window (%d)", numOutput, contextWindow)
	}
	if tk == nil {
		return nil, fmt.Errorf("tokenizer is required")
	}

	p := &Planner{
		contextWindow:   contextWindow,
		numOutput:       numOutput,
		maxChunkOverlap: 0,
		separator:       " ",
		tokenizer:       tk,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxChunkOverlap < 0 || p.maxChunkOverlap >= contextWindow {
		return nil, fmt.Errorf("chunk overlap %d out of range for context window %d", p.maxChunkOverlap, contextWindow)
	}
	return p, nil
}

// ChunkSizeGivenPrompt returns the maximum tokens available to each of
// numChunks text chunks bound into the template at once. The fixed template
// text (with partial values applied) and the reserved output are subtracted
// first.
func (p *Planner) ChunkSizeGivenPrompt(tmpl *prompt.Template, numChunks int) (int, error) {
	if numChunks < 1 {
		return 0, fmt.Errorf("numChunks must be at least 1, got %d", numChunks)
	}

	promptTokens := p.tokenizer.Count(tmpl.EmptyFormat())
	available := p.contextWindow - promptTokens - p.numOutput
	chunkSize := available / numChunks
	if chunkSize <= 0 {
		return 0, &SizingError{
			ContextWindow: p.contextWindow,
			PromptTokens:  promptTokens,
			NumOutput:     p.numOutput,
		}
	}
	return chunkSize, nil
}

// GetTextSplitterGivenPrompt returns a splitter sized so numChunks of its
// output fit simultaneously into the remaining budget for tmpl.
func (p *Planner) GetTextSplitterGivenPrompt(tmpl *prompt.Template, numChunks int) (*splitter.TokenSplitter, error) {
	chunkSize, err := p.ChunkSizeGivenPrompt(tmpl, numChunks)
	if err != nil {
		return nil, err
	}
	overlap := p.maxChunkOverlap
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return splitter.NewTokenSplitter(
		splitter.WithChunkSize(chunkSize),
		splitter.WithChunkOverlap(overlap),
		splitter.WithSeparator(p.separator),
		splitter.WithTokenizer(p.tokenizer),
	), nil
}

// CompactTextChunks merges adjacent chunks up to the per-prompt token limit
// to minimize the number of LLM calls. Order is preserved, merged chunks
// never exceed the limit, and a single oversized chunk is split further
// rather than passed through.
func (p *Planner) CompactTextChunks(tmpl *prompt.Template, chunks []string) ([]string, error) {
	chunkSize, err := p.ChunkSizeGivenPrompt(tmpl, 1)
	if err != nil {
		return nil, err
	}

	oversizeSplitter := splitter.NewTokenSplitter(
		splitter.WithChunkSize(chunkSize),
		splitter.WithChunkOverlap(0),
		splitter.WithSeparator(p.separator),
		splitter.WithTokenizer(p.tokenizer),
	)

	var compacted []string
	var current string

	flush := func() {
		if current != "" {
			compacted = append(compacted, current)
			current = ""
		}
	}

	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		if p.tokenizer.Count(chunk) > chunkSize {
			// An oversized chunk never merges; split it on its own.
			flush()
			compacted = append(compacted, oversizeSplitter.SplitText(chunk)...)
			continue
		}

		if current == "" {
			current = chunk
			continue
		}
		merged := current + "\n\n" + chunk
		if p.tokenizer.Count(merged) <= chunkSize {
			current = merged
		} else {
			flush()
			current = chunk
		}
	}
	flush()

	return compacted, nil
}

// GetTextFromNodes concatenates node texts so the whole result fits into the
// budget for tmpl, truncating each node's share when necessary.
func (p *Planner) GetTextFromNodes(tmpl *prompt.Template, nodes []*schema.Node) (string, error) {
	if len(nodes) == 0 {
		return "", nil
	}
	split, err := p.GetTextSplitterGivenPrompt(tmpl, len(nodes))
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, truncateWithSplitter(split, n.Text))
	}
	return strings.Join(parts, "\n\n"), nil
}

// GetNumberedTextFromNodes builds the 1-based numbered listing used by
// selection prompts. The listing order matches the order of nodes, so a
// parsed selection number indexes the same slice directly.
func (p *Planner) GetNumberedTextFromNodes(tmpl *prompt.Template, nodes []*schema.Node) (string, error) {
	if len(nodes) == 0 {
		return "", nil
	}
	split, err := p.GetTextSplitterGivenPrompt(tmpl, len(nodes))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, n := range nodes {
		text := strings.ReplaceAll(truncateWithSplitter(split, n.Text), "\n", " ")
		fmt.Fprintf(&sb, "(%d) %s\n\n", i+1, text)
	}
	return sb.String(), nil
}

// truncateWithSplitter keeps only the first token-bounded chunk of text.
func truncateWithSplitter(s *splitter.TokenSplitter, text string) string {
	chunks := s.SplitText(text)
	if len(chunks) == 0 {
		return ""
	}
	return chunks[0]
}
