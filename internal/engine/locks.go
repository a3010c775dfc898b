package engine

import "sync"

// keyedMutex hands out one mutex per key so read-modify-write sections on
// the same aggregate serialize within this process. Writers in other
// processes are caught by the store's conditional writes instead.
type keyedMutex struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{m: make(map[string]*sync.Mutex)}
}

// lock blocks until the key's mutex is held and returns the unlock func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.m[key]
	if !ok {
		m = &sync.Mutex{}
		k.m[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func taskKey(id string) string    { return "task/" + id }
func absenceKey(id string) string { return "absence/" + id }
