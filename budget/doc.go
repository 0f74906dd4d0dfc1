// Package budget implements token-budget planning: given a prompt template
// with placeholders and a model's context window, it computes how much input
// text fits after reserving room for the fixed template text and the
// requested output, and derives token-bounded splitters and chunk merges
// from that budget.
package budget // import "github.com/smallnest/ragkit/budget"
