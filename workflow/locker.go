package workflow

import "sync"

// entityLocks serializes concurrent transition attempts per entity so that
// guard evaluation and the state mutation are never separated by a race.
// Locks are keyed by entity id and kept for the process lifetime; the
// entity population is small enough that entries are not reclaimed.
type entityLocks struct {
	locks sync.Map // string -> *sync.Mutex
}

func (l *entityLocks) lock(key string) func() {
	v, _ := l.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
