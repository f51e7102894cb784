package game

import (
	"math/rand"
	"sync"
	"time"

	"wildcraft/internal/world"
)

// lockedRNG makes a world.RNG safe for concurrent use.
type lockedRNG struct {
	mu sync.Mutex
	r  world.RNG
}

func NewRNG(seed int64) world.RNG {
	return &lockedRNG{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRNG) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRNG) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRNG) Int63() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Int63()
}

var (
	defaultRNGOnce sync.Once
	defaultRNG     world.RNG
)

func sharedRNG() world.RNG {
	defaultRNGOnce.Do(func() {
		defaultRNG = NewRNG(time.Now().UnixNano())
	})
	return defaultRNG
}
