package game

import "sync"

// KeyedLocker hands out one mutex per key. Entries are reference counted and
// dropped once nobody holds or waits on them. The zero value is ready to use.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until key is held and returns its unlock func.
func (k *KeyedLocker) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*keyedLock{}
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			k.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

func (k *KeyedLocker) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func playerKey(id string) string      { return "player:" + id }
func nodeKey(id string) string        { return "node:" + id }
func userKey(id string) string        { return "user:" + id }
func stationsKey(biome string) string { return "biome:" + biome + ":stations" }
func nodesKey(biome string) string    { return "biome:" + biome + ":nodes" }
