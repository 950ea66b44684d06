package usecase

import "sync"

// StoreGate serializes reconciliation writes against derived-view reads.
// Upserts hold the write side; the compliance recompute and swap detection
// hold the read side for their whole pass so they never observe an upsert
// that started after them.
type StoreGate struct {
	mu sync.RWMutex
}

// NewStoreGate creates a gate
func NewStoreGate() *StoreGate {
	return &StoreGate{}
}

// Write runs fn exclusively
func (g *StoreGate) Write(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}

// Read runs fn alongside other readers
func (g *StoreGate) Read(fn func() error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn()
}
