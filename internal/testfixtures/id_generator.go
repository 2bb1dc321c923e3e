package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator hands out deterministic identifiers per entity, so a test can
// predict "container-001" and "slot-001" regardless of which service ran
// first.
type IDGenerator struct {
	mu       sync.Mutex
	scope    string
	counters map[string]int
}

// NewIDGenerator returns a generator whose identifiers start with scope, as
// in "t1-slot-001". An empty scope leaves the entity name bare.
func NewIDGenerator(scope string) *IDGenerator {
	return &IDGenerator{scope: scope, counters: make(map[string]int)}
}

// Next returns the next identifier for entity.
func (g *IDGenerator) Next(entity string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[entity]++
	id := fmt.Sprintf("%s-%03d", entity, g.counters[entity])
	if g.scope != "" {
		id = g.scope + "-" + id
	}
	return id
}

// For binds Next to one entity in the func() string shape the services take.
func (g *IDGenerator) For(entity string) func() string {
	if g == nil {
		return func() string { return "" }
	}
	return func() string { return g.Next(entity) }
}

// Issued reports how many identifiers entity has received.
func (g *IDGenerator) Issued(entity string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counters[entity]
}
