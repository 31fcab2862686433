package conversation

import "sync"

// keyedMutex provides one mutex per lead so concurrent inbound messages for
// the same lead serialize while different leads proceed in parallel. Entries
// are never evicted; the map is bounded by the number of leads seen by this
// process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) forKey(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	return lock
}
