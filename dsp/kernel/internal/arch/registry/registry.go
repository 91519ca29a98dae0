// Package registry holds the implementation registry for the kernel
// multiply-accumulate primitives.
//
// Implementation variants register themselves via init() and the kernel
// package selects the best one for the detected CPU at first use. The
// generic variant is the numerical reference; every other variant must
// match it exactly in tests.
package registry

import (
	"sync"

	"github.com/cwbudde/algo-stream/internal/cpu"
)

// DotProductFn computes sum(a[i] * b[i]) over the shorter of the two
// slices, returning 0 for empty input.
type DotProductFn func(a, b []float64) float64

// OpEntry is one registered multiply-accumulate implementation.
type OpEntry struct {
	Name       string
	SIMDLevel  cpu.SIMDLevel
	Priority   int
	DotProduct DotProductFn
}

// OpRegistry stores available implementations.
type OpRegistry struct {
	mu      sync.RWMutex
	entries []OpEntry
	sorted  bool
}

// Global is the default kernel primitive registry.
var Global = &OpRegistry{}

// Register adds an implementation entry.
func (r *OpRegistry) Register(entry OpEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	r.sorted = false
}

// Lookup returns the highest-priority implementation supported by features.
func (r *OpRegistry) Lookup(features cpu.Features) *OpEntry {
	r.mu.Lock()
	if !r.sorted {
		r.sortByPriority()
		r.sorted = true
	}
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		entry := &r.entries[i]
		if cpu.Supports(features, entry.SIMDLevel) {
			return entry
		}
	}

	return nil
}

func (r *OpRegistry) sortByPriority() {
	for i := 1; i < len(r.entries); i++ {
		key := r.entries[i]
		j := i - 1
		for j >= 0 && r.entries[j].Priority < key.Priority {
			r.entries[j+1] = r.entries[j]
			j--
		}
		r.entries[j+1] = key
	}
}

// ListEntries returns a copy of entries for tests and debugging.
func (r *OpRegistry) ListEntries() []OpEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]OpEntry, len(r.entries))
	copy(entries, r.entries)
	return entries
}
