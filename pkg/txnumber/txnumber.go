package txnumber

import (
	"fmt"
	"sync"
	"time"
)

const (
	prefix       = "TRX"
	timeLayout   = "20060102150405"
	maxPerSecond = 1000
)

// Generator issues unique, human-readable transaction numbers of the form
// TRX<yyyymmddhhmmss><seq>. Numbers are assigned exactly once and never
// reused: the sequence resets each second, and when a second is exhausted
// the generator waits for the clock to advance rather than repeat a number.
type Generator struct {
	mu       sync.Mutex
	now      func() time.Time
	lastTick int64
	sequence int
}

// New builds a Generator backed by the wall clock.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock builds a Generator with an injected clock for tests.
func NewWithClock(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

// Next returns the next transaction number. Safe for concurrent use.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	tick := g.now().Unix()
	switch {
	case tick == g.lastTick:
		g.sequence++
		if g.sequence >= maxPerSecond {
			for tick <= g.lastTick {
				tick = g.now().Unix()
			}
			g.sequence = 0
		}
	case tick > g.lastTick:
		g.sequence = 0
	default:
		// Clock went backwards; keep counting within the last observed
		// second so numbers stay unique.
		tick = g.lastTick
		g.sequence++
	}

	g.lastTick = tick
	return fmt.Sprintf("%s%s%03d", prefix, time.Unix(tick, 0).Format(timeLayout), g.sequence)
}
