package storage

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// VisitedSet implements repository.VisitedSet. A Bloom filter answers the
// common "never seen" case; the exact set settles filter hits so a false
// positive can never drop a page.
type VisitedSet struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

// Config holds Bloom filter configuration
type Config struct {
	Size              uint
	FalsePositiveRate float64
}

// NewVisitedSet creates an empty visited set
func NewVisitedSet(config Config) *VisitedSet {
	if config.Size == 0 {
		config.Size = 1024
	}
	if config.FalsePositiveRate <= 0 || config.FalsePositiveRate >= 1 {
		config.FalsePositiveRate = 0.01
	}
	return &VisitedSet{
		filter: bloom.NewWithEstimates(config.Size, config.FalsePositiveRate),
		exact:  make(map[string]struct{}),
	}
}

// MarkVisited implements repository.VisitedSet
func (s *VisitedSet) MarkVisited(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.containsLocked(url) {
		return false
	}
	s.filter.AddString(url)
	s.exact[url] = struct{}{}
	return true
}

// Contains implements repository.VisitedSet
func (s *VisitedSet) Contains(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.containsLocked(url)
}

// Len implements repository.VisitedSet
func (s *VisitedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.exact)
}

func (s *VisitedSet) containsLocked(url string) bool {
	if !s.filter.TestString(url) {
		return false
	}
	_, ok := s.exact[url]
	return ok
}
