package entity

// Site summarises the audited website
type Site struct {
	URL               string `json:"url" yaml:"url"`
	Host              string `json:"host" yaml:"host"`
	RegistrableDomain string `json:"registrable_domain,omitempty" yaml:"registrable_domain,omitempty"`
	PagesCrawled      int    `json:"pages_crawled" yaml:"pages_crawled"`
}

// Inputs echoes the request that produced a report
type Inputs struct {
	TargetKeyword *string `json:"target_keyword" yaml:"target_keyword"`
	MaxPages      int     `json:"max_pages" yaml:"max_pages"`
	MaxDepth      int     `json:"max_depth" yaml:"max_depth"`
}

// PriorityFixes buckets issues by tier. The three keys are always present.
type PriorityFixes struct {
	P1 []Issue `json:"P1" yaml:"P1"`
	P2 []Issue `json:"P2" yaml:"P2"`
	P3 []Issue `json:"P3" yaml:"P3"`
}

// Bucket returns the issues of one tier
func (pf *PriorityFixes) Bucket(p Priority) []Issue {
	switch p {
	case P1:
		return pf.P1
	case P2:
		return pf.P2
	case P3:
		return pf.P3
	}
	return nil
}

// Add appends an issue to its tier
func (pf *PriorityFixes) Add(issue Issue) {
	switch issue.Priority {
	case P1:
		pf.P1 = append(pf.P1, issue)
	case P2:
		pf.P2 = append(pf.P2, issue)
	case P3:
		pf.P3 = append(pf.P3, issue)
	}
}

// Total returns the number of issues across all tiers
func (pf *PriorityFixes) Total() int {
	return len(pf.P1) + len(pf.P2) + len(pf.P3)
}

// NewPriorityFixes returns buckets that serialise as empty arrays
func NewPriorityFixes() PriorityFixes {
	return PriorityFixes{P1: []Issue{}, P2: []Issue{}, P3: []Issue{}}
}

// Report is the complete result of one audit run
type Report struct {
	Site          Site          `json:"site" yaml:"site"`
	Inputs        Inputs        `json:"inputs" yaml:"inputs"`
	PriorityFixes PriorityFixes `json:"priority_fixes" yaml:"priority_fixes"`
	Pages         []*Page       `json:"pages" yaml:"pages"`
	BrokenLinks   []BrokenLink  `json:"broken_links" yaml:"broken_links"`
	Partial       bool          `json:"partial,omitempty" yaml:"partial,omitempty"`
}

// ErrorReport is returned instead of a Report when the request is rejected
type ErrorReport struct {
	Error string `json:"error" yaml:"error"`
}

// InvalidRequestMessage is the error text for rejected start URLs
const InvalidRequestMessage = "Invalid or blocked URL."
