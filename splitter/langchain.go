package splitter

import (
	"github.com/tmc/langchaingo/textsplitter"
)

// LangChainSplitter adapts a langchaingo textsplitter to ragkit's splitter
// shape, for callers that already carry a langchaingo pipeline.
type LangChainSplitter struct {
	splitter textsplitter.TextSplitter
}

// NewLangChainSplitter creates the adapter.
func NewLangChainSplitter(s textsplitter.TextSplitter) *LangChainSplitter {
	return &LangChainSplitter{splitter: s}
}

// SplitText splits text with the wrapped splitter. langchaingo reports
// errors; they are swallowed into a single-chunk fallback because ragkit
// splitters are infallible by contract.
func (s *LangChainSplitter) SplitText(text string) []string {
	chunks, err := s.splitter.SplitText(text)
	if err != nil || len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
