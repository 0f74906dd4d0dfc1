// Package index holds the arena-style graph structure shared by ragkit
// indices: nodes addressed by stable string ids, ordered child lists and an
// ordered root set.
package index // import "github.com/smallnest/ragkit/index"
