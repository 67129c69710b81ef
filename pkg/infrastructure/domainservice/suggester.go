package domainservice

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
	"github.com/WangYihang/SEO-Auditor/pkg/domain/service"
)

const (
	minDescriptionLength = 70
	maxDescriptionLength = 170

	thinContentTipWords = 300
	keywordOveruseHits  = 20

	fallbackTitleCore = "Your Service"
)

const (
	TipAddH1           = "Add a clear H1 that matches the primary topic of the page."
	TipThinContent     = "Content is thin (<300 words). Add helpful sections: services, FAQs, proof, location coverage, process, and next steps."
	TipKeywordAbsent   = "Target keyword not found in visible page text. Add it naturally in H1 or first paragraph, and in one subheading."
	TipKeywordOveruse  = "Keyword appears very frequently. Reduce repetition and use synonyms; keep copy natural."
	genericDescription = "Discover our services, pricing, and how we help customers get better results with consistent, high-quality work."
)

// KeywordHits counts non-overlapping, case-insensitive occurrences of
// keyword in text. The keyword is matched literally.
func KeywordHits(text, keyword string) int {
	if keyword == "" {
		return 0
	}
	return strings.Count(strings.ToLower(text), strings.ToLower(keyword))
}

// PageKeywordHits counts keyword occurrences in the visible text, title and
// joined H1 texts of a page
func PageKeywordHits(visibleText, title string, h1 []string, keyword string) *entity.KeywordHits {
	return &entity.KeywordHits{
		InText:  KeywordHits(visibleText, keyword),
		InTitle: KeywordHits(title, keyword),
		InH1:    KeywordHits(strings.Join(h1, " "), keyword),
	}
}

// SuggestTitle proposes a title built around the first H1
func SuggestTitle(title string, h1 []string, keyword string) string {
	core := fallbackTitleCore
	if len(h1) > 0 {
		core = h1[0]
	}
	if keyword != "" {
		return fmt.Sprintf("%s | %s Services", core, TitleCase(keyword))
	}
	if title != "" {
		return title
	}
	return core + " | Local Business"
}

// SuggestDescription keeps a description of acceptable length and
// otherwise synthesizes a call-to-action sentence
func SuggestDescription(existing, keyword string) string {
	if n := utf8.RuneCountInString(existing); existing != "" && n >= minDescriptionLength && n <= maxDescriptionLength {
		return existing
	}
	if keyword == "" {
		return genericDescription
	}
	return truncateWords(
		fmt.Sprintf("Learn how our %s helps you get better results. Transparent pricing, fast turnaround, and friendly support.", keyword),
		maxDescriptionLength,
	)
}

// ContentTips returns the copywriting tips that apply to a page
func ContentTips(wordCount int, hasH1 bool, keyword string, keywordCount int) []string {
	tips := []string{}
	if !hasH1 {
		tips = append(tips, TipAddH1)
	}
	if wordCount < thinContentTipWords {
		tips = append(tips, TipThinContent)
	}
	if keyword != "" && keywordCount == 0 {
		tips = append(tips, TipKeywordAbsent)
	}
	if keyword != "" && keywordCount > keywordOveruseHits {
		tips = append(tips, TipKeywordOveruse)
	}
	return tips
}

// Suggester implements service.KeywordAdvisor
type Suggester struct{}

// NewSuggester creates a new suggester
func NewSuggester() *Suggester {
	return &Suggester{}
}

// KeywordHits implements service.KeywordAdvisor
func (s *Suggester) KeywordHits(signals *service.Signals, keyword string) *entity.KeywordHits {
	return PageKeywordHits(signals.VisibleText, signals.Title, signals.H1, keyword)
}

// Suggest implements service.KeywordAdvisor
func (s *Suggester) Suggest(page *entity.Page, keyword string) *entity.Suggestions {
	return &entity.Suggestions{
		SuggestedTitle:           SuggestTitle(page.Title, page.H1, keyword),
		SuggestedMetaDescription: SuggestDescription(page.MetaDescription, keyword),
	}
}

// ContentTips implements service.KeywordAdvisor. Without a keyword there
// is nothing to advise on.
func (s *Suggester) ContentTips(page *entity.Page, keyword string) []entity.Issue {
	if keyword == "" {
		return nil
	}
	keywordCount := 0
	if page.KeywordHits != nil {
		keywordCount = page.KeywordHits.InText
	}
	tips := ContentTips(page.WordCount, page.H1Count() > 0, keyword, keywordCount)
	return ContentTipIssues(page.URL, tips)
}

// TitleCase upper-cases the first letter of every run of letters and
// lower-cases the rest ("marine SUPPLY" gives "Marine Supply")
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// truncateWords cuts s to at most max runes, backing off to a word boundary
func truncateWords(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)[:max]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "."
}
