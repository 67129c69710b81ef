package storage

import (
	"sync"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
)

// Frontier implements repository.Frontier as an unbounded FIFO
type Frontier struct {
	mu      sync.Mutex
	entries []entity.FrontierEntry
	head    int
}

// NewFrontier creates a frontier seeded with the given entries
func NewFrontier(seed ...entity.FrontierEntry) *Frontier {
	f := &Frontier{}
	f.entries = append(f.entries, seed...)
	return f
}

// Enqueue implements repository.Frontier
func (f *Frontier) Enqueue(entry entity.FrontierEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append(f.entries, entry)
}

// Dequeue implements repository.Frontier
func (f *Frontier) Dequeue() (entity.FrontierEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.head >= len(f.entries) {
		return entity.FrontierEntry{}, false
	}
	entry := f.entries[f.head]
	f.entries[f.head] = entity.FrontierEntry{}
	f.head++

	// reclaim the consumed prefix once it dominates the slice
	if f.head > 64 && f.head*2 >= len(f.entries) {
		f.entries = append([]entity.FrontierEntry(nil), f.entries[f.head:]...)
		f.head = 0
	}
	return entry, true
}

// Len implements repository.Frontier
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.entries) - f.head
}
