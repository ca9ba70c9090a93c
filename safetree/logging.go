package safetree

import (
	"github.com/joeycumines/go-utilpkg/logiface"
	"github.com/joeycumines/go-utilpkg/logiface/stumpy"
)

// Logger is the logger type an Engine's diagnostics are logged through. A
// Config's Logger field is nil by default, and every logging call in this
// package checks for that before building an event, so an Engine with no
// logger attached pays nothing for logging on its hot path.
type Logger = *logiface.Logger[*stumpy.Event]

// NewStderrLogger builds a Logger that writes newline-delimited JSON to
// os.Stderr, for callers that just want WithLogger(safetree.
// NewStderrLogger()) without reaching into stumpy themselves.
func NewStderrLogger(opts ...stumpy.Option) Logger {
	return stumpy.L.New(stumpy.L.WithStumpy(opts...))
}
