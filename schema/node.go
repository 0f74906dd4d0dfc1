package schema

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Node is the atomic unit of text in an index. Leaf nodes hold original
// source text; summary nodes hold an LLM-generated condensation of their
// children. Nodes are immutable once created, except that a summary node's
// text is rewritten when the tree rebalances.
type Node struct {
	// ID uniquely identifies the node.
	ID string `json:"id"`
	// Index is the node's position in insertion order within its graph.
	// It defines the stable ordering used for display and for numbered
	// selection prompts.
	Index int `json:"index"`
	// Text is the node content.
	Text string `json:"text"`
	// RefDocID optionally points at the source document (or at a nested
	// index struct registered in the docstore).
	RefDocID string `json:"ref_doc_id,omitempty"`
	// Embedding is an optional precomputed embedding vector.
	Embedding []float32 `json:"embedding,omitempty"`
	// ParentID is empty for root nodes.
	ParentID string `json:"parent_id,omitempty"`
	// ChildIDs keeps the node's children in insertion order.
	ChildIDs []string `json:"child_ids,omitempty"`
}

// NewNode creates a leaf node with a fresh ID.
func NewNode(text string) *Node {
	return &Node{
		ID:   uuid.NewString(),
		Text: text,
	}
}

// NewNodeFromDocument creates a leaf node that references its source document.
func NewNodeFromDocument(text, refDocID string) *Node {
	n := NewNode(text)
	n.RefDocID = refDocID
	return n
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.ChildIDs) == 0
}

// TruncateText shortens text for log output, appending "..." when cut.
func TruncateText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	if maxLength <= 3 {
		return text[:maxLength]
	}
	return text[:maxLength-3] + "..."
}

// SortNodes returns the nodes ordered by their insertion index. The result
// is a new slice; the input is not modified.
func SortNodes(nodes map[string]*Node) []*Node {
	sorted := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		sorted = append(sorted, n)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})
	return sorted
}

// NodeTexts extracts the text of each node, preserving order.
func NodeTexts(nodes []*Node) []string {
	texts := make([]string, len(nodes))
	for i, n := range nodes {
		texts[i] = n.Text
	}
	return texts
}

// ConcatNodeText joins node texts with blank lines, trimming surrounding
// whitespace from each piece.
func ConcatNodeText(nodes []*Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, strings.TrimSpace(n.Text))
	}
	return strings.Join(parts, "\n\n")
}
