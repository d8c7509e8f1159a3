package logger

import (
	"sync"
	"sync/atomic"
	"time"
)

// clock caches time.Now() on a fixed interval so entry construction never
// pays for a syscall. Within one interval, call order is the authoritative
// sequence, not the timestamp. The refresher goroutine is scoped to the root
// logger and stopped by Close, keeping shutdown and tests clean.
type clock struct {
	now      atomic.Pointer[time.Time]
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

func newClock(interval time.Duration) *clock {
	c := &clock{
		interval: interval,
		done:     make(chan struct{}),
	}
	t := time.Now()
	c.now.Store(&t)

	go c.run()
	return c
}

func (c *clock) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t := time.Now()
			c.now.Store(&t)
		case <-c.done:
			return
		}
	}
}

// Now returns the most recently cached time.
func (c *clock) Now() time.Time {
	return *c.now.Load()
}

// Stop terminates the refresher goroutine. Safe to call multiple times.
func (c *clock) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}
