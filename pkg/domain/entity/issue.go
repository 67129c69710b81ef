package entity

import "fmt"

// Priority is a remediation tier
type Priority string

const (
	// P1 is critical
	P1 Priority = "P1"
	// P2 is important
	P2 Priority = "P2"
	// P3 is advisory
	P3 Priority = "P3"
)

// Priorities lists every tier in report order
var Priorities = []Priority{P1, P2, P3}

// IssueCode is the stable identifier of an issue kind
type IssueCode string

const (
	CodeFetchFailed              IssueCode = "FETCH_FAILED"
	CodeHTTPError                IssueCode = "HTTP_ERROR"
	CodeMissingTitle             IssueCode = "MISSING_TITLE"
	CodeMissingH1                IssueCode = "MISSING_H1"
	CodeMultipleH1               IssueCode = "MULTIPLE_H1"
	CodeMissingMetaDescription   IssueCode = "MISSING_META_DESCRIPTION"
	CodeManyImagesMissingAlt     IssueCode = "MANY_IMAGES_MISSING_ALT"
	CodeThinContent              IssueCode = "THIN_CONTENT"
	CodeContentTip               IssueCode = "CONTENT_TIP"
	CodeDuplicateTitle           IssueCode = "DUPLICATE_TITLE"
	CodeDuplicateMetaDescription IssueCode = "DUPLICATE_META_DESCRIPTION"
	CodeBrokenLinksFound         IssueCode = "BROKEN_LINKS_FOUND"
)

// IssueDetails carries structured context for site-level issues
type IssueDetails struct {
	Examples []BrokenLink `json:"examples,omitempty" yaml:"examples,omitempty"`
	Value    string       `json:"value,omitempty" yaml:"value,omitempty"`
	URLs     []string     `json:"urls,omitempty" yaml:"urls,omitempty"`
}

// Issue is a single actionable finding
type Issue struct {
	Priority Priority      `json:"priority" yaml:"priority"`
	Code     IssueCode     `json:"code" yaml:"code"`
	Message  string        `json:"message" yaml:"message"`
	URL      string        `json:"url,omitempty" yaml:"url,omitempty"`
	Details  *IssueDetails `json:"details,omitempty" yaml:"details,omitempty"`
	Fix      string        `json:"fix,omitempty" yaml:"fix,omitempty"`
}

// String implements fmt.Stringer
func (i Issue) String() string {
	if i.URL == "" {
		return fmt.Sprintf("[%s] %s: %s", i.Priority, i.Code, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s (%s)", i.Priority, i.Code, i.Message, i.URL)
}
