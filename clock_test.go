package wirechat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServerClock_Observe(t *testing.T) {
	t.Run("keeps the maximum of observed timestamps", func(t *testing.T) {
		clock := &serverClock{}
		for _, ts := range []int64{100, 400, 200, 400, 300} {
			clock.Observe(ts)
		}
		assert.EqualValues(t, 400, clock.Now())
	})
	t.Run("ignores stale timestamps silently", func(t *testing.T) {
		clock := &serverClock{}
		clock.Observe(500)
		clock.Observe(499)
		clock.Observe(500)
		assert.EqualValues(t, 500, clock.Now())
	})
}

func TestServerClock_Now(t *testing.T) {
	t.Run("falls back to wall clock before any heartbeat", func(t *testing.T) {
		clock := &serverClock{}
		before := time.Now().UnixMilli()
		now := clock.Now()
		after := time.Now().UnixMilli()
		assert.GreaterOrEqual(t, now, before)
		assert.LessOrEqual(t, now, after)
	})
	t.Run("returns the observed value after a heartbeat", func(t *testing.T) {
		clock := &serverClock{}
		clock.Observe(42)
		assert.EqualValues(t, 42, clock.Now())
	})
}
