package presenter

import (
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
	"github.com/olekukonko/ts"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// TerminalWidth returns the width of the controlling terminal, or fallback
// when it cannot be determined.
func TerminalWidth(fallback int) int {
	size, err := ts.GetSize()
	if err != nil || size.Col() <= 0 {
		return fallback
	}
	return size.Col()
}

const (
	refreshRate = 180 * time.Millisecond
	waitGrace   = 3 * refreshRate
)

// ProgressBar renders audit progress as a single mpb bar
type ProgressBar struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	once     sync.Once

	mu         sync.Mutex
	broken     int64
	lastUpdate time.Time
}

// NewProgressBar creates a progress bar writing to out
func NewProgressBar(out io.Writer, label string, maxPages int) *ProgressBar {
	p := mpb.New(
		mpb.WithOutput(out),
		mpb.WithWidth(TerminalWidth(80)/2),
		mpb.WithRefreshRate(refreshRate),
	)

	pb := &ProgressBar{progress: p, lastUpdate: time.Now()}
	pb.bar = p.AddBar(int64(maxPages),
		mpb.PrependDecorators(
			decor.Name(label, decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("[%d / %d]", decor.WCSyncWidth),
			decor.Percentage(decor.WCSyncSpace),
			decor.Any(func(decor.Statistics) string {
				pb.mu.Lock()
				defer pb.mu.Unlock()
				return brokenLabel(pb.broken)
			}, decor.WCSyncSpace),
			decor.OnComplete(
				decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncSpace), "done",
			),
		),
	)
	return pb
}

// OnProgress implements application.ProgressObserver
func (pb *ProgressBar) OnProgress(p entity.Progress) {
	pb.mu.Lock()
	pb.broken = p.BrokenLinks
	elapsed := time.Since(pb.lastUpdate)
	pb.lastUpdate = time.Now()
	pb.mu.Unlock()

	pb.bar.EwmaSetCurrent(p.PagesCrawled, elapsed)
	if p.Done {
		pb.finish()
	}
}

// OnPageRecorded implements application.ProgressObserver
func (pb *ProgressBar) OnPageRecorded(*entity.Page) {}

// Wait blocks until the bar has been rendered for the last time. Output
// that is not a terminal may never render the final frame, so after a
// grace period the container is shut down instead.
func (pb *ProgressBar) Wait() {
	pb.finish()

	done := make(chan struct{})
	go func() {
		pb.progress.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitGrace):
		pb.progress.Shutdown()
	}
}

func (pb *ProgressBar) finish() {
	pb.once.Do(func() {
		// Crawls usually stop short of max pages
		pb.bar.SetTotal(-1, true)
	})
}

func brokenLabel(n int64) string {
	if n == 0 {
		return "no broken links"
	}
	if n == 1 {
		return "1 broken link"
	}
	return strconv.FormatInt(n, 10) + " broken links"
}
