package service

import (
	"context"
	"time"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
)

// FetchResult is the outcome of retrieving one document.
// Status 0 means a network/DNS failure, in which case Error is set.
type FetchResult struct {
	Status   int
	Body     []byte
	Elapsed  time.Duration
	Error    string
	FinalURL string
}

// Failed reports whether no HTTP response was obtained
func (r *FetchResult) Failed() bool {
	return r.Status == 0
}

// PageFetcher retrieves documents for the crawl
type PageFetcher interface {
	// Fetch retrieves a URL, retrying once without a leading "www." on network failure
	Fetch(ctx context.Context, url string) *FetchResult
}

// LinkProber checks outbound link liveness
type LinkProber interface {
	// ProbeLink returns the HTTP status of url, or 0 on transport failure
	ProbeLink(ctx context.Context, url string) int
}

// HostResolver resolves hostnames to IP addresses
type HostResolver interface {
	// Resolve returns every address host maps to
	Resolve(ctx context.Context, host string) ([]string, error)
}

// HostGuard decides whether a start URL may be crawled at all
type HostGuard interface {
	// Check returns nil when rawURL is an http(s) URL on a public host
	Check(ctx context.Context, rawURL string) error
}

// ScopeValidator decides which discovered URLs belong to the audited site
type ScopeValidator interface {
	// IsInScope reports whether url is on the same host as siteURL
	IsInScope(url, siteURL string) bool
}

// Signals is everything extracted from one parsed document
type Signals struct {
	Title            string
	MetaDescription  string
	Headings         map[string]int
	H1               []string
	ImagesTotal      int
	ImagesMissingAlt int
	WordCount        int
	VisibleText      string
	Links            []string
	InternalLinks    int
	ExternalLinks    int
	SpeedTips        []string
}

// SignalExtractor derives SEO signals from an HTML document
type SignalExtractor interface {
	// Extract parses body fetched from pageURL; links are classified against siteURL
	Extract(pageURL, siteURL string, body []byte) (*Signals, error)
}

// IssueClassifier maps an extracted page to its ordered issues and builds
// the issues the orchestrator raises itself
type IssueClassifier interface {
	// Classify returns the page-level issues of an extracted page
	Classify(page *entity.Page) []entity.Issue
	// FetchFailed is the single issue of a page that could not be fetched
	FetchFailed(url, cause string) entity.Issue
	// DuplicateTitle flags url as one of the pages in urls sharing title
	DuplicateTitle(url, title string, urls []string) entity.Issue
	// DuplicateDescription flags url as one of the pages in urls sharing description
	DuplicateDescription(url, description string, urls []string) entity.Issue
	// BrokenLinks summarises every broken link, quoting at most sample of them
	BrokenLinks(links []entity.BrokenLink, sample int) entity.Issue
}

// KeywordAdvisor is the keyword and suggestion engine
type KeywordAdvisor interface {
	// KeywordHits counts keyword occurrences in the text, title and H1s
	KeywordHits(signals *Signals, keyword string) *entity.KeywordHits
	// Suggest proposes a replacement title and meta description
	Suggest(page *entity.Page, keyword string) *entity.Suggestions
	// ContentTips returns copywriting advice as P3 issues
	ContentTips(page *entity.Page, keyword string) []entity.Issue
}

// DomainCalculator calculates domain properties
type DomainCalculator interface {
	// GetRoot extracts the registrable domain (eTLD+1) of a host
	GetRoot(host string) (string, error)
}
