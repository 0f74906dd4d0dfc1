package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenizer counts tokens in text. All length accounting in ragkit goes
// through a Tokenizer; character counts are never used as a substitute.
type Tokenizer interface {
	// Count returns the number of tokens in text.
	Count(text string) int
}

// Whitespace is a word-level tokenizer. It is deterministic and dependency
// free, which makes it the tokenizer of choice in tests.
type Whitespace struct{}

// NewWhitespace creates a whitespace tokenizer.
func NewWhitespace() *Whitespace {
	return &Whitespace{}
}

// Fields splits text on unicode whitespace.
func (t *Whitespace) Fields(text string) []string {
	return strings.FieldsFunc(text, unicode.IsSpace)
}

// Count returns the number of whitespace-separated tokens.
func (t *Whitespace) Count(text string) int {
	return len(t.Fields(text))
}
