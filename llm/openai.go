package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIModel binds directly to the OpenAI chat completion API.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

var _ Model = (*OpenAIModel)(nil)

// OpenAIOption configures an OpenAIModel.
type OpenAIOption func(*OpenAIModel)

// WithModel sets the model name. Defaults to GPT-3.5 Turbo.
func WithModel(model string) OpenAIOption {
	return func(m *OpenAIModel) {
		m.model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float32) OpenAIOption {
	return func(m *OpenAIModel) {
		m.temperature = temperature
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(maxTokens int) OpenAIOption {
	return func(m *OpenAIModel) {
		m.maxTokens = maxTokens
	}
}

// NewOpenAIModel creates an OpenAI binding with the given API key.
func NewOpenAIModel(apiKey string, opts ...OpenAIOption) *OpenAIModel {
	m := &OpenAIModel{
		client: openai.NewClient(apiKey),
		model:  openai.GPT3Dot5Turbo,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewOpenAIModelWithClient creates a binding around an existing client,
// e.g. one configured for an OpenAI-compatible endpoint.
func NewOpenAIModelWithClient(client *openai.Client, opts ...OpenAIOption) *OpenAIModel {
	m := &OpenAIModel{
		client: client,
		model:  openai.GPT3Dot5Turbo,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate runs a single-turn chat completion.
func (m *OpenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
