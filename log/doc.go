// Package log provides the Logger interface used throughout ragkit, a
// stdlib-backed default and a kataras/golog adapter.
package log // import "github.com/smallnest/ragkit/log"
