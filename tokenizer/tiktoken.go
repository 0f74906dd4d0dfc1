package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tiktoken counts tokens with the BPE encoding of a given OpenAI model.
type Tiktoken struct {
	encoding *tiktoken.Tiktoken
}

var _ Tokenizer = (*Tiktoken)(nil)

// NewTiktoken creates a tokenizer for the given model name, e.g.
// "gpt-3.5-turbo".
func NewTiktoken(model string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("unable to load encoding for model %q: %w", model, err)
	}
	return &Tiktoken{encoding: enc}, nil
}

// NewTiktokenEncoding creates a tokenizer for a named encoding, e.g.
// "cl100k_base".
func NewTiktokenEncoding(name string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("unable to load encoding %q: %w", name, err)
	}
	return &Tiktoken{encoding: enc}, nil
}

// Count returns the number of BPE tokens in text.
func (t *Tiktoken) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}
