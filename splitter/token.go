package splitter

import (
	"strings"

	"github.com/smallnest/ragkit/tokenizer"
)

// TokenSplitter divides text into chunks bounded by token count. Lengths are
// measured with a Tokenizer; split boundaries fall on the separator, so
// joining the chunks with the separator reproduces the original words.
type TokenSplitter struct {
	chunkSize    int
	chunkOverlap int
	separator    string
	tokenizer    tokenizer.Tokenizer
}

// Option configures a TokenSplitter.
type Option func(*TokenSplitter)

// WithChunkSize sets the maximum tokens per chunk.
func WithChunkSize(size int) Option {
	return func(s *TokenSplitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets how many tokens consecutive chunks share.
func WithChunkOverlap(overlap int) Option {
	return func(s *TokenSplitter) {
		s.chunkOverlap = overlap
	}
}

// WithSeparator sets the boundary separator. Defaults to a single space.
func WithSeparator(separator string) Option {
	return func(s *TokenSplitter) {
		s.separator = separator
	}
}

// WithTokenizer sets the length function. Defaults to the whitespace
// tokenizer.
func WithTokenizer(tk tokenizer.Tokenizer) Option {
	return func(s *TokenSplitter) {
		s.tokenizer = tk
	}
}

// NewTokenSplitter creates a splitter with 1000-token chunks and 200-token
// overlap unless configured otherwise.
func NewTokenSplitter(opts ...Option) *TokenSplitter {
	s := &TokenSplitter{
		chunkSize:    1000,
		chunkOverlap: 200,
		separator:    " ",
		tokenizer:    tokenizer.NewWhitespace(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunkOverlap >= s.chunkSize {
		s.chunkOverlap = s.chunkSize / 2
	}
	return s
}

// ChunkSize returns the configured maximum tokens per chunk.
func (s *TokenSplitter) ChunkSize() int {
	return s.chunkSize
}

// SplitText splits text into token-bounded chunks. Text that already fits
// returns as a single chunk.
func (s *TokenSplitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if s.tokenizer.Count(text) <= s.chunkSize {
		return []string{text}
	}

	pieces := strings.Split(text, s.separator)

	var chunks []string
	start := 0
	for start < len(pieces) {
		// Greedily extend the window while it still fits.
		end := start
		for end < len(pieces) {
			candidate := strings.Join(pieces[start:end+1], s.separator)
			if s.tokenizer.Count(candidate) > s.chunkSize && end > start {
				break
			}
			end++
		}

		chunks = append(chunks, strings.Join(pieces[start:end], s.separator))
		if end >= len(pieces) {
			break
		}

		// Step back for overlap without getting stuck.
		next := end - s.overlapPieces(pieces, start, end)
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// overlapPieces counts how many trailing pieces of the current chunk fit in
// the overlap budget.
func (s *TokenSplitter) overlapPieces(pieces []string, start, end int) int {
	if s.chunkOverlap <= 0 {
		return 0
	}
	count := 0
	for i := end - 1; i > start; i-- {
		tail := strings.Join(pieces[i:end], s.separator)
		if s.tokenizer.Count(tail) > s.chunkOverlap {
			break
		}
		count = end - i
	}
	return count
}
