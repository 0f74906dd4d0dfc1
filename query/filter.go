package query

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`\w+`)

// KeywordFilter excludes nodes from consideration based on whole-word
// matches against their text. Matching is case-insensitive and word-level:
// "cat" does not match "catalog".
type KeywordFilter struct {
	Required []string
	Excluded []string
}

// Empty reports whether the filter admits everything.
func (f KeywordFilter) Empty() bool {
	return len(f.Required) == 0 && len(f.Excluded) == 0
}

// Match reports whether text contains every required keyword and none of
// the excluded ones.
func (f KeywordFilter) Match(text string) bool {
	if f.Empty() {
		return true
	}
	words := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		words[w] = struct{}{}
	}
	for _, kw := range f.Required {
		if _, ok := words[strings.ToLower(kw)]; !ok {
			return false
		}
	}
	for _, kw := range f.Excluded {
		if _, ok := words[strings.ToLower(kw)]; ok {
			return false
		}
	}
	return true
}
