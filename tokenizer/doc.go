// Package tokenizer provides token counting for budget math and text
// splitting. The Tiktoken implementation matches OpenAI model encodings;
// Whitespace is a deterministic word counter for tests.
package tokenizer // import "github.com/smallnest/ragkit/tokenizer"
