package safetree

// Stats is a point-in-time copy of one Engine's commit/abort counters,
// exported independently of internal/txguard so callers outside this
// module never need to name an internal type.
type Stats struct {
	Commits          int64
	FallbackCommits  int64
	ConflictAborts   int64
	CapacityAborts   int64
	ExplicitAborts   int64
	LockTakenAborts  int64
	ValidationFailed int64
	RetriesExhausted int64
	OtherAborts      int64
}

// StatsOf reads e's counters.
func StatsOf[T interface {
	comparable
	Node[T]
}](e *Engine[T]) Stats {
	s := e.Stats()
	return Stats{
		Commits:          s.Commits,
		FallbackCommits:  s.FallbackCommits,
		ConflictAborts:   s.ConflictAborts,
		CapacityAborts:   s.CapacityAborts,
		ExplicitAborts:   s.ExplicitAborts,
		LockTakenAborts:  s.LockTakenAborts,
		ValidationFailed: s.ValidationFailed,
		RetriesExhausted: s.RetriesExhausted,
		OtherAborts:      s.OtherAborts,
	}
}
