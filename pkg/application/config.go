package application

import (
	"errors"
	"time"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
)

// ErrRequestInvalid is returned when the start URL is malformed, not
// http(s), or points at a blocked host. No page is fetched in that case.
var ErrRequestInvalid = errors.New("invalid or blocked start URL")

// Defaults applied to zero-valued Config fields
const (
	DefaultNumWorkers       = 4
	DefaultProbeWorkers     = 8
	DefaultProbeCap         = 30
	DefaultBrokenSampleCap  = 20
	DefaultBrokenReportCap  = 200
	DefaultProgressInterval = 500 * time.Millisecond
)

// Config holds the use case configuration
type Config struct {
	NumWorkers   int
	ProbeWorkers int
	// ProbeCap is how many links per page are probed; negative disables probing
	ProbeCap        int
	BrokenSampleCap int
	BrokenReportCap int
	// Deadline bounds a whole run; zero means no limit
	Deadline                    time.Duration
	ReportDuplicateDescriptions bool
	ProgressInterval            time.Duration
}

// WithDefaults fills zero-valued fields
func (c Config) WithDefaults() Config {
	if c.NumWorkers <= 0 {
		c.NumWorkers = DefaultNumWorkers
	}
	if c.ProbeWorkers <= 0 {
		c.ProbeWorkers = DefaultProbeWorkers
	}
	if c.ProbeCap == 0 {
		c.ProbeCap = DefaultProbeCap
	}
	if c.BrokenSampleCap <= 0 {
		c.BrokenSampleCap = DefaultBrokenSampleCap
	}
	if c.BrokenReportCap <= 0 {
		c.BrokenReportCap = DefaultBrokenReportCap
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = DefaultProgressInterval
	}
	return c
}

// ProgressObserver observes a running audit
type ProgressObserver interface {
	// OnProgress receives periodic snapshots and a final one with Done set
	OnProgress(progress entity.Progress)
	// OnPageRecorded is called once per page, in report order
	OnPageRecorded(page *entity.Page)
}

// ErrorReportFor converts a rejected request into the minimal error report.
// It returns false for any other error.
func ErrorReportFor(err error) (*entity.ErrorReport, bool) {
	if !errors.Is(err, ErrRequestInvalid) {
		return nil, false
	}
	return &entity.ErrorReport{Error: entity.InvalidRequestMessage}, true
}
