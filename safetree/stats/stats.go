// Package stats exposes an Engine's commit/abort counters through expvar,
// for processes that want them scraped or printed alongside their other
// runtime metrics.
package stats

import (
	"encoding/json"
	"expvar"

	"github.com/BazookaMusic/safetree/safetree"
)

// Publish registers an expvar.Var under name that reports e's current
// Stats as JSON whenever it is read. It panics if name is already
// registered, matching expvar.Publish's own behavior.
func Publish[T interface {
	comparable
	safetree.Node[T]
}](name string, e *safetree.Engine[T]) {
	expvar.Publish(name, expvar.Func(func() any {
		return safetree.StatsOf(e)
	}))
}

// String renders a Stats snapshot the way an expvar consumer would see it,
// useful for ad hoc printing in a CLI.
func String(s safetree.Stats) string {
	b, err := json.Marshal(s)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
