// Package llm wraps language model providers behind a single-prompt Model
// interface and adds prompt formatting plus token-usage accounting through
// the Predictor type. Bindings exist for langchaingo models and the OpenAI
// API; MockModel serves tests.
package llm // import "github.com/smallnest/ragkit/llm"
