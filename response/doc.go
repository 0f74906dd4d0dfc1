// Package response synthesizes answers from retrieved text chunks with a
// create-and-refine fold: the first chunk is answered fresh, every further
// chunk refines the running answer. Compact mode pre-merges chunks under the
// prompt budget to minimize LLM calls.
package response // import "github.com/smallnest/ragkit/response"
