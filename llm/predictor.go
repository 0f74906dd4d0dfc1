package llm

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/smallnest/ragkit/prompt"
	"github.com/smallnest/ragkit/tokenizer"
)

// Model generates a completion for a fully formatted prompt. Implementations
// wrap a concrete provider; retries, if desired, belong inside the
// implementation, never in the callers.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Predictor formats prompt templates, calls a Model and keeps token-usage
// counters so callers can measure cost without provider-specific hooks.
// Counters are safe for concurrent use.
type Predictor struct {
	model     Model
	tokenizer tokenizer.Tokenizer

	totalTokens atomic.Int64
	lastTokens  atomic.Int64
}

// PredictorOption configures a Predictor.
type PredictorOption func(*Predictor)

// WithTokenizer sets the tokenizer used for usage accounting. Defaults to
// the whitespace tokenizer.
func WithTokenizer(tk tokenizer.Tokenizer) PredictorOption {
	return func(p *Predictor) {
		p.tokenizer = tk
	}
}

// NewPredictor creates a predictor around a model.
func NewPredictor(model Model, opts ...PredictorOption) *Predictor {
	p := &Predictor{
		model:     model,
		tokenizer: tokenizer.NewWhitespace(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict formats the template with vars, runs the model and returns the
// response text together with the formatted prompt. Any model failure is
// propagated to the caller unchanged in meaning; there is no retry here.
func (p *Predictor) Predict(ctx context.Context, tmpl *prompt.Template, vars map[string]string) (string, string, error) {
	formatted, err := tmpl.Format(vars)
	if err != nil {
		return "", "", fmt.Errorf("format prompt: %w", err)
	}

	text, err := p.model.Generate(ctx, formatted)
	if err != nil {
		return "", formatted, fmt.Errorf("llm prediction failed: %w", err)
	}

	used := int64(p.tokenizer.Count(formatted) + p.tokenizer.Count(text))
	p.totalTokens.Add(used)
	p.lastTokens.Store(used)

	return text, formatted, nil
}

// TotalTokensUsed returns the cumulative token usage across all predictions.
func (p *Predictor) TotalTokensUsed() int64 {
	return p.totalTokens.Load()
}

// LastTokenUsage returns the token usage of the most recent prediction.
func (p *Predictor) LastTokenUsage() int64 {
	return p.lastTokens.Load()
}
