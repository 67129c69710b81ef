package repository

import (
	"io"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
)

// Frontier is the FIFO queue of discovered URLs awaiting traversal
type Frontier interface {
	// Enqueue appends an entry at the tail
	Enqueue(entry entity.FrontierEntry)
	// Dequeue removes and returns the head entry
	Dequeue() (entity.FrontierEntry, bool)
	// Len returns the current queue length
	Len() int
}

// VisitedSet records URLs already dequeued during a run
type VisitedSet interface {
	// MarkVisited atomically marks url and reports whether it was newly added
	MarkVisited(url string) bool
	// Contains reports whether url has been marked
	Contains(url string) bool
	// Len returns the number of marked URLs
	Len() int
}

// ReportWriter writes finished reports
type ReportWriter interface {
	// Write encodes a report (or error report) value
	Write(v any) error
	io.Closer
}
