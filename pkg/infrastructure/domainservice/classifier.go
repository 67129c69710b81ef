package domainservice

import (
	"fmt"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
)

const (
	missingAltRatio  = 0.30
	thinContentWords = 200
)

// Fix texts shared by page and site level issues
const (
	FixFetchFailed    = "Try again later or audit a different URL. Some hosts fail DNS resolution from cloud servers intermittently."
	FixHTTPError      = "Ensure the page returns 200 OK (fix routing, hosting, redirects, or removed content)."
	FixMissingTitle   = "Add a unique, descriptive title (50–60 chars) including primary topic/keyword."
	FixMissingH1      = "Add exactly one H1 that describes the page’s main topic."
	FixMultipleH1     = "Keep one H1. Convert others to H2/H3."
	FixMissingMeta    = "Add a compelling description (140–160 chars) summarizing value + CTA."
	FixMissingAlt     = "Add descriptive alt text for important images (especially service/hero images)."
	FixThinContent    = "Add useful content: services, FAQs, proof, process, and location/service details."
	FixDuplicateTitle = "Make each page title unique and specific to that page."
	FixDuplicateMeta  = "Write a distinct meta description for every page."
	FixBrokenLinks    = "Fix or remove broken links. Redirect removed pages, update old URLs."
)

// Classifier implements service.IssueClassifier
type Classifier struct{}

// NewClassifier creates a new issue classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify implements service.IssueClassifier. An HTTP error status
// suppresses every other check.
func (c *Classifier) Classify(page *entity.Page) []entity.Issue {
	issues := []entity.Issue{}

	if page.Status >= 400 {
		return append(issues, entity.Issue{
			Priority: entity.P1,
			Code:     entity.CodeHTTPError,
			Message:  fmt.Sprintf("Page returns HTTP %d.", page.Status),
			URL:      page.URL,
			Fix:      FixHTTPError,
		})
	}

	if page.Title == "" {
		issues = append(issues, pageIssue(page, entity.P1, entity.CodeMissingTitle, "Missing <title> tag.", FixMissingTitle))
	}
	if page.H1Count() == 0 {
		issues = append(issues, pageIssue(page, entity.P1, entity.CodeMissingH1, "No H1 found.", FixMissingH1))
	}
	if page.H1Count() > 1 {
		issues = append(issues, pageIssue(page, entity.P2, entity.CodeMultipleH1, "Multiple H1 tags found.", FixMultipleH1))
	}
	if page.MetaDescription == "" {
		issues = append(issues, pageIssue(page, entity.P2, entity.CodeMissingMetaDescription, "Missing meta description.", FixMissingMeta))
	}
	if page.ImagesTotal > 0 && float64(page.ImagesMissingAlt)/float64(page.ImagesTotal) > missingAltRatio {
		issues = append(issues, pageIssue(page, entity.P2, entity.CodeManyImagesMissingAlt,
			fmt.Sprintf("%d/%d images missing alt text.", page.ImagesMissingAlt, page.ImagesTotal), FixMissingAlt))
	}
	if page.WordCount < thinContentWords {
		issues = append(issues, pageIssue(page, entity.P3, entity.CodeThinContent,
			fmt.Sprintf("Low visible word count (~%d).", page.WordCount), FixThinContent))
	}

	return issues
}

// FetchFailed implements service.IssueClassifier
func (c *Classifier) FetchFailed(url, cause string) entity.Issue {
	return FetchFailedIssue(url, cause)
}

// DuplicateTitle implements service.IssueClassifier
func (c *Classifier) DuplicateTitle(url, title string, urls []string) entity.Issue {
	return DuplicateTitleIssue(url, title, urls)
}

// DuplicateDescription implements service.IssueClassifier
func (c *Classifier) DuplicateDescription(url, description string, urls []string) entity.Issue {
	return DuplicateDescriptionIssue(url, description, urls)
}

// BrokenLinks implements service.IssueClassifier
func (c *Classifier) BrokenLinks(links []entity.BrokenLink, sample int) entity.Issue {
	return BrokenLinksIssue(links, sample)
}

// FetchFailedIssue is the single issue carried by a page that could not be fetched
func FetchFailedIssue(url, cause string) entity.Issue {
	return entity.Issue{
		Priority: entity.P1,
		Code:     entity.CodeFetchFailed,
		Message:  fmt.Sprintf("Failed to fetch page (DNS/network): %s", cause),
		URL:      url,
		Fix:      FixFetchFailed,
	}
}

// ContentTipIssues wraps content tips as P3 issues
func ContentTipIssues(url string, tips []string) []entity.Issue {
	issues := make([]entity.Issue, 0, len(tips))
	for _, tip := range tips {
		issues = append(issues, entity.Issue{Priority: entity.P3, Code: entity.CodeContentTip, Message: tip, URL: url})
	}
	return issues
}

// DuplicateTitleIssue flags url as one of the pages sharing title
func DuplicateTitleIssue(url, title string, urls []string) entity.Issue {
	return entity.Issue{
		Priority: entity.P2,
		Code:     entity.CodeDuplicateTitle,
		Message:  fmt.Sprintf("Duplicate title used on %d pages.", len(urls)),
		URL:      url,
		Details:  sharedValueDetails(title, urls),
		Fix:      FixDuplicateTitle,
	}
}

// DuplicateDescriptionIssue flags url as one of the pages sharing description
func DuplicateDescriptionIssue(url, description string, urls []string) entity.Issue {
	return entity.Issue{
		Priority: entity.P2,
		Code:     entity.CodeDuplicateMetaDescription,
		Message:  fmt.Sprintf("Duplicate meta description used on %d pages.", len(urls)),
		URL:      url,
		Details:  sharedValueDetails(description, urls),
		Fix:      FixDuplicateMeta,
	}
}

func sharedValueDetails(value string, urls []string) *entity.IssueDetails {
	return &entity.IssueDetails{Value: value, URLs: append([]string(nil), urls...)}
}

// BrokenLinksIssue summarises every broken link found, quoting at most
// sample of them
func BrokenLinksIssue(links []entity.BrokenLink, sample int) entity.Issue {
	examples := links
	if sample >= 0 && len(examples) > sample {
		examples = examples[:sample]
	}
	return entity.Issue{
		Priority: entity.P1,
		Code:     entity.CodeBrokenLinksFound,
		Message:  fmt.Sprintf("Found %d broken link(s).", len(links)),
		Details:  &entity.IssueDetails{Examples: append([]entity.BrokenLink(nil), examples...)},
		Fix:      FixBrokenLinks,
	}
}

func pageIssue(page *entity.Page, priority entity.Priority, code entity.IssueCode, message, fix string) entity.Issue {
	return entity.Issue{Priority: priority, Code: code, Message: message, URL: page.URL, Fix: fix}
}
