// Package splitter provides token-bounded text splitting. Chunk sizes are
// measured with a tokenizer length function, never a character heuristic.
package splitter // import "github.com/smallnest/ragkit/splitter"
