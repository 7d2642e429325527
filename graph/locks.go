package graph

import "sync"

// KeyedMutex serializes work per telegram user. Two rapid messages from the
// same user would otherwise race on the persisted booking state; work for
// different users still runs fully concurrently. Entries are refcounted and
// dropped once the last holder releases, so the map never grows with the
// user population.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the lock for the key and returns its release func.
func (l *KeyedMutex) Lock(telegramID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[telegramID]
	if !ok {
		entry = &keyedLock{}
		l.locks[telegramID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, telegramID)
		}
		l.mu.Unlock()
	}
}
