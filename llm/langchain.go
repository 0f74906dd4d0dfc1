package llm

import (
	"context"

	"github.com/tmc/langchaingo/llms"
)

// LangChainModel adapts a langchaingo llms.Model to the Model interface.
type LangChainModel struct {
	model llms.Model
	opts  []llms.CallOption
}

var _ Model = (*LangChainModel)(nil)

// NewLangChainModel creates an adapter around a langchaingo model. Call
// options (temperature, max tokens, ...) are applied to every generation.
func NewLangChainModel(model llms.Model, opts ...llms.CallOption) *LangChainModel {
	return &LangChainModel{model: model, opts: opts}
}

// Generate runs a single-prompt completion.
func (m *LangChainModel) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m.model, prompt, m.opts...)
}
