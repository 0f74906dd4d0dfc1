// Package schema defines the data model shared by every ragkit component:
// index nodes, source documents, query bundles and the IndexStruct marker
// for nested indices.
package schema // import "github.com/smallnest/ragkit/schema"
