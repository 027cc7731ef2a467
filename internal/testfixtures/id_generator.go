package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator hands out deterministic sequential identifiers so bookings,
// teams and sessions created in tests sort and compare stably.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewIDGenerator constructs a generator yielding "<prefix>-1", "<prefix>-2"
// and so on. An empty prefix defaults to "sched".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "sched"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc returns Next bound as an id function for service constructors. A
// nil generator yields empty identifiers.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Reset rewinds the sequence so a fresh fixture set starts at 1 again.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counter = 0
	g.mu.Unlock()
}
