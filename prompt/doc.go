// Package prompt provides placeholder-validated prompt templates. The core
// treats templates as opaque format strings plus a declared placeholder list;
// the list feeds token-budget math, never content decisions.
package prompt // import "github.com/smallnest/ragkit/prompt"
