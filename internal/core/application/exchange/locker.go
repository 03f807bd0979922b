package exchange

import (
	"sort"
	"sync"
)

// keyedLocker hands out one mutex per key. Entries are dropped once nobody
// holds or waits for them.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: make(map[string]*refMutex)}
}

// lock acquires the mutexes of all the given keys in a stable order and
// returns the function releasing them.
func (l *keyedLocker) lock(keys ...string) func() {
	keys = dedupSorted(keys)

	mutexes := make([]*refMutex, 0, len(keys))
	for _, key := range keys {
		mutexes = append(mutexes, l.acquire(key))
	}

	return func() {
		for i := len(keys) - 1; i >= 0; i-- {
			mutexes[i].Unlock()
			l.release(keys[i])
		}
	}
}

func (l *keyedLocker) acquire(key string) *refMutex {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &refMutex{}
		l.locks[key] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return m
}

func (l *keyedLocker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m, ok := l.locks[key]; ok {
		m.refs--
		if m.refs <= 0 {
			delete(l.locks, key)
		}
	}
}

func dedupSorted(keys []string) []string {
	sorted := append([]string{}, keys...)
	sort.Strings(sorted)

	out := sorted[:0]
	for i, k := range sorted {
		if i == 0 || k != sorted[i-1] {
			out = append(out, k)
		}
	}
	return out
}
