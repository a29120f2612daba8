package wirechat

import (
	"sync"
	"time"
)

// serverClock keeps a monotonically non-decreasing estimate of the
// server time, fed by heartbeat timestamps. A heartbeat older than or
// equal to the current estimate is silently ignored.
type serverClock struct {
	mu      sync.Mutex
	current int64 // epoch milliseconds; zero until the first heartbeat
}

// Observe feeds a heartbeat timestamp to the clock.
func (c *serverClock) Observe(candidate int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if candidate > c.current {
		c.current = candidate
	}
}

// Now returns the server-time estimate in epoch milliseconds. Before
// any heartbeat has been observed it falls back to the local wall
// clock.
func (c *serverClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == 0 {
		return time.Now().UnixMilli()
	}
	return c.current
}
