package entity

import "time"

// Progress is a point-in-time view of a running audit
type Progress struct {
	StartURL       string
	MaxPages       int
	PagesCrawled   int64
	PagesFailed    int64
	FrontierLength int
	CurrentDepth   int
	ActiveWorkers  int
	TotalWorkers   int
	LinksProbed    int64
	BrokenLinks    int64
	IssuesFound    int64
	ActiveURLs     []string
	StartTime      time.Time
	LastUpdateTime time.Time
	Done           bool
}
