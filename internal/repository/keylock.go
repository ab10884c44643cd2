package repository

import (
	"sort"
	"sync"
)

// keyLocker hands out one mutex per key. Entries are dropped once no
// goroutine holds or waits on them.
type keyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocker() *keyLocker {
	return &keyLocker{locks: make(map[string]*keyLock)}
}

// Lock acquires every key in sorted order and returns the release func.
// Duplicate keys are acquired once.
func (l *keyLocker) Lock(keys ...string) func() {
	keys = uniqueSorted(keys)
	held := make([]*keyLock, 0, len(keys))

	for _, key := range keys {
		l.mu.Lock()
		kl, ok := l.locks[key]
		if !ok {
			kl = &keyLock{}
			l.locks[key] = kl
		}
		kl.refs++
		l.mu.Unlock()

		kl.mu.Lock()
		held = append(held, kl)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].mu.Unlock()

				l.mu.Lock()
				held[i].refs--
				if held[i].refs == 0 {
					delete(l.locks, keys[i])
				}
				l.mu.Unlock()
			}
		})
	}
}

// size reports how many keys currently have a lock entry
func (l *keyLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func uniqueSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
