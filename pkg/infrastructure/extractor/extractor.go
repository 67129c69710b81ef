package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/WangYihang/SEO-Auditor/pkg/domain/service"
	"github.com/WangYihang/SEO-Auditor/pkg/infrastructure/urlservice"
	"golang.org/x/net/html"
)

// Speed tip thresholds
const (
	maxScripts           = 20
	maxStylesheets       = 10
	maxImages            = 25
	minImagesMissingSize = 10
)

const (
	TipManyScripts     = "Many <script> tags detected. Consider bundling/minifying JS and loading non-critical scripts with defer/async."
	TipManyStylesheets = "Many CSS files detected. Consider bundling/minifying and removing unused CSS."
	TipManyImages      = "Many images on this page. Ensure compression + lazy-loading for offscreen images."
	TipImageDimensions = "Many images missing width/height. Add dimensions to reduce layout shifts (CLS)."
)

// Elements whose text never renders
var invisibleElements = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
}

// Extractor implements service.SignalExtractor with goquery
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract implements service.SignalExtractor
func (e *Extractor) Extract(pageURL, siteURL string, body []byte) (*service.Signals, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	signals := &service.Signals{
		Title:           Title(doc),
		MetaDescription: MetaDescription(doc),
		Headings:        HeadingCounts(doc),
		H1:              H1Texts(doc),
		VisibleText:     VisibleText(doc.Selection),
		SpeedTips:       SpeedTips(doc),
	}
	signals.WordCount = len(strings.Fields(signals.VisibleText))
	signals.ImagesTotal, signals.ImagesMissingAlt = ImageAltCounts(doc)

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		link, ok := urlservice.ResolveLink(pageURL, href)
		if !ok || !urlservice.IsHTTPURL(link) {
			return
		}
		signals.Links = append(signals.Links, link)
		if urlservice.SameHost(siteURL, link) {
			signals.InternalLinks++
		} else {
			signals.ExternalLinks++
		}
	})

	return signals, nil
}

// Title returns the trimmed text of the first <title>
func Title(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// MetaDescription returns the trimmed content of the first
// <meta name="description">, matching the name case-insensitively
func MetaDescription(doc *goquery.Document) string {
	var content string
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !strings.EqualFold(name, "description") {
			return true
		}
		value, _ := s.Attr("content")
		content = strings.TrimSpace(value)
		return false
	})
	return content
}

// HeadingCounts counts h1..h6; every level is present in the result
func HeadingCounts(doc *goquery.Document) map[string]int {
	counts := make(map[string]int, 6)
	for level := 1; level <= 6; level++ {
		tag := fmt.Sprintf("h%d", level)
		counts[tag] = doc.Find(tag).Length()
	}
	return counts
}

// H1Texts returns the non-empty texts of every <h1>
func H1Texts(doc *goquery.Document) []string {
	texts := []string{}
	doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		if text := VisibleText(s); text != "" {
			texts = append(texts, text)
		}
	})
	return texts
}

// ImageAltCounts returns the number of images and how many lack a non-blank alt
func ImageAltCounts(doc *goquery.Document) (total, missing int) {
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		total++
		alt, ok := s.Attr("alt")
		if !ok || strings.TrimSpace(alt) == "" {
			missing++
		}
	})
	return total, missing
}

// SpeedTips returns heuristic performance hints in a fixed order
func SpeedTips(doc *goquery.Document) []string {
	tips := []string{}

	if doc.Find("script").Length() > maxScripts {
		tips = append(tips, TipManyScripts)
	}

	stylesheets := doc.Find("link[rel]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		for _, token := range strings.Fields(rel) {
			if strings.EqualFold(token, "stylesheet") {
				return true
			}
		}
		return false
	}).Length()
	if stylesheets > maxStylesheets {
		tips = append(tips, TipManyStylesheets)
	}

	images := doc.Find("img")
	if images.Length() > maxImages {
		tips = append(tips, TipManyImages)
	}

	missingSize := 0
	images.Each(func(_ int, s *goquery.Selection) {
		width, _ := s.Attr("width")
		height, _ := s.Attr("height")
		if width == "" || height == "" {
			missingSize++
		}
	})
	if missingSize >= minImagesMissingSize {
		tips = append(tips, TipImageDimensions)
	}

	return tips
}

// VisibleText joins every non-empty text node under sel with a single
// space, collapsing runs of whitespace and skipping script, style and
// template contents
func VisibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				parts = append(parts, text)
			}
			return
		case html.ElementNode:
			if invisibleElements[n.Data] {
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
