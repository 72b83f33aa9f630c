package render

import (
	"time"

	"github.com/livepeer/catalyst-api/cache"
)

// lockEntry records when a render invocation started; the lock is advisory (spec.md §4.10) — the database status
// remains the source of truth, and a stale entry left by a crashed
// process does not block new work.
type lockEntry struct {
	StartedAt time.Time
}

// locks is the in-process render-lock map keyed by job id, reusing the
// teacher's generic per-stream cache (cache.Cache[T]) for the same
// map+mutex shape, repurposed here to one entry per in-flight render.
type locks struct {
	c *cache.Cache[*lockEntry]
}

func newLocks() *locks {
	return &locks{c: cache.New[*lockEntry]()}
}

// TryAcquire reports whether id was free and, if so, marks it locked.
func (l *locks) TryAcquire(id string) bool {
	if l.c.Get(id) != nil {
		return false
	}
	l.c.Store(id, &lockEntry{StartedAt: time.Now()})
	return true
}

func (l *locks) Release(id string) {
	l.c.Remove("", id)
}
