package entity

import "time"

const (
	// DefaultMaxPages is used when a request leaves the page limit unset
	DefaultMaxPages = 25
	// DefaultMaxDepth is used when a request leaves the depth limit unset
	DefaultMaxDepth = 2
)

// CrawlRequest describes one audit run. It is not modified once the run starts.
type CrawlRequest struct {
	StartURL      string
	TargetKeyword string
	MaxPages      int
	MaxDepth      int
}

// WithDefaults fills unset limits with the documented defaults
func (r CrawlRequest) WithDefaults() CrawlRequest {
	if r.MaxPages <= 0 {
		r.MaxPages = DefaultMaxPages
	}
	if r.MaxDepth < 0 {
		r.MaxDepth = 0
	}
	return r
}

// FrontierEntry is a discovered URL waiting to be fetched
type FrontierEntry struct {
	URL   string
	Depth int
}

// Task is a frontier entry that has been dequeued and assigned a
// discovery sequence number
type Task struct {
	Entry      FrontierEntry
	Sequence   int
	DequeuedAt time.Time
}
