package testfixtures

import (
	"fmt"
	"sync"
)

// RefGenerator produces deterministic booking references for tests.
type RefGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewRefGenerator constructs a generator yielding "<prefix>-1", "<prefix>-2", ...
// When prefix is empty, "booking" is used.
func NewRefGenerator(prefix string) *RefGenerator {
	if prefix == "" {
		prefix = "booking"
	}
	return &RefGenerator{prefix: prefix}
}

// Next returns the next reference in the sequence.
func (g *RefGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *RefGenerator) NextFunc() func() string {
	if g == nil {
		return nil
	}
	return g.Next
}
