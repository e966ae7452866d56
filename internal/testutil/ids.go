package testutil

import (
	"fmt"
	"sync"
)

// IDGenerator hands out GUID-shaped identifiers from a counter.
//
// The same sequence of calls yields the same identifiers, so golden output
// that embeds GUIDs stays stable across runs.
//
// Thread-safety: All methods are safe for concurrent use.
type IDGenerator struct {
	mu  sync.Mutex
	seq int64
}

// NewIDGenerator creates a generator whose first identifier ends in 1.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next identifier, e.g. "00000000-0000-0000-0000-000000000001".
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return ID(g.seq)
}

// Reset restarts the sequence.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// ID formats n the way IDGenerator does.
func ID(n int64) string {
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
}
