// Package query resolves natural-language queries against indices.
//
// Runner folds an answer over an ordered set of nodes, recursing into
// registered nested indices and skipping nodes rejected by a keyword
// filter. SubQuestionEngine decomposes one query into per-tool
// sub-questions, answers them concurrently, and synthesizes a final answer
// once every branch has completed.
package query
