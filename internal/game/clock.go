package game

import (
	"sync"
	"time"
)

// Clock is the server's authority on game time. Craft timers, harvest
// cooldowns and node respawns are all measured against it.
type Clock interface {
	Now() time.Time
}

// SystemClock reads wall time at the millisecond resolution the API uses.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func clockOrSystem(c Clock) Clock {
	if c == nil {
		return SystemClock{}
	}
	return c
}

// ClientTime resolves an optional client supplied unix-ms timestamp against
// c. A client may name a moment the server has already passed but never one
// it has not reached, so timers cannot be fast-forwarded.
func ClientTime(c Clock, clientMs *int64) time.Time {
	server := clockOrSystem(c).Now()
	if clientMs == nil {
		return server
	}
	if client := time.UnixMilli(*clientMs); client.Before(server) {
		return client
	}
	return server
}

// StepClock only moves when told to.
type StepClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewStepClock(start time.Time) *StepClock {
	return &StepClock{t: start}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *StepClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *StepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
