// Package tree implements a hierarchical summary index.
//
// Leaves hold the original text chunks. Every non-leaf node holds an LLM
// summary of its children, and no node ever has more than the configured
// fan-out limit of direct children. Levels that grow past the limit are
// consolidated: the child list is split into two halves and each half is
// absorbed under a freshly summarized node.
//
// Building:
//
//	idx, err := tree.NewIndex(store, predictor, planner, tree.WithNumChildren(10))
//	if err != nil { ... }
//	err = idx.BuildFromNodes(ctx, leaves)   // bulk, bottom-up
//	err = idx.Insert(ctx, node)             // incremental, LLM-guided descent
//
// Querying descends from the roots by numbered selection and answers from
// the selected leaf:
//
//	answer, err := idx.Query(ctx, schema.NewQueryBundle("what changed in v2?"))
//
// All prediction calls happen before any structural mutation, so a failed
// LLM call leaves the tree exactly as it was.
package tree
