package ragkit

import (
	"github.com/smallnest/ragkit/schema"
)

// Splitter turns a text into consecutive chunks. Satisfied by
// splitter.TokenSplitter and splitter.LangChainSplitter.
type Splitter interface {
	SplitText(text string) []string
}

// NodesFromDocuments splits each document into chunks and wraps them as
// nodes carrying the source document's ID, in document then chunk order.
func NodesFromDocuments(s Splitter, docs ...schema.Document) []*schema.Node {
	var nodes []*schema.Node
	for _, doc := range docs {
		for _, chunk := range s.SplitText(doc.Content) {
			nodes = append(nodes, schema.NewNodeFromDocument(chunk, doc.ID))
		}
	}
	return nodes
}
