package hashindex

import "go.uber.org/atomic"

// Tracker 匹配标记
// It is only ever set to true, so concurrent writers are idempotent. Writes
// happen while streaming and reads during flush, separated by the driver's
// barrier.
type Tracker struct {
	found atomic.Bool
}

// Store marks the entry as matched.
func (t *Tracker) Store() {
	t.found.Store(true)
}

// Load reports whether any probe row matched the entry.
func (t *Tracker) Load() bool {
	return t.found.Load()
}
