// Package docstore provides document stores: the in-memory default plus
// SQLite, Redis and Postgres adapters in subpackages. Stores own node and
// document content; index graphs hold only ids.
package docstore // import "github.com/smallnest/ragkit/docstore"
