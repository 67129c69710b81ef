package entity

// KeywordHits counts target keyword occurrences in different page regions
type KeywordHits struct {
	InText  int `json:"in_text" yaml:"in_text"`
	InTitle int `json:"in_title" yaml:"in_title"`
	InH1    int `json:"in_h1" yaml:"in_h1"`
}

// Suggestions holds generated replacement copy for a page. Pages that were
// never parsed carry an empty value, encoded as {}.
type Suggestions struct {
	SuggestedTitle           string `json:"suggested_title,omitempty" yaml:"suggested_title,omitempty"`
	SuggestedMetaDescription string `json:"suggested_meta_description,omitempty" yaml:"suggested_meta_description,omitempty"`
}

// Page is the audit record of one visited URL.
// Status 0 means the fetch failed at the network/DNS level.
type Page struct {
	URL              string         `json:"url" yaml:"url"`
	FetchedURL       string         `json:"fetched_url,omitempty" yaml:"fetched_url,omitempty"`
	Depth            int            `json:"depth" yaml:"depth"`
	Status           int            `json:"status" yaml:"status"`
	ResponseTimeMs   int64          `json:"response_time_ms" yaml:"response_time_ms"`
	Title            string         `json:"title" yaml:"title"`
	MetaDescription  string         `json:"meta_description" yaml:"meta_description"`
	H1               []string       `json:"h1" yaml:"h1"`
	Headings         map[string]int `json:"headings" yaml:"headings"`
	ImagesTotal      int            `json:"images_total" yaml:"images_total"`
	ImagesMissingAlt int            `json:"images_missing_alt" yaml:"images_missing_alt"`
	InternalLinks    int            `json:"internal_links" yaml:"internal_links"`
	ExternalLinks    int            `json:"external_links" yaml:"external_links"`
	WordCount        int            `json:"word_count" yaml:"word_count"`
	KeywordHits      *KeywordHits   `json:"keyword_hits" yaml:"keyword_hits"`
	Issues           []Issue        `json:"issues" yaml:"issues"`
	Suggestions      *Suggestions   `json:"suggestions" yaml:"suggestions"`
	SpeedTips        []string       `json:"speed_tips" yaml:"speed_tips"`
}

// NewPage creates an empty page record for a dequeued URL
func NewPage(url string, depth int) *Page {
	return &Page{
		URL:         url,
		Depth:       depth,
		H1:          []string{},
		Headings:    map[string]int{},
		KeywordHits: &KeywordHits{},
		Issues:      []Issue{},
		Suggestions: &Suggestions{},
		SpeedTips:   []string{},
	}
}

// H1Count returns the number of <h1> elements found on the page
func (p *Page) H1Count() int {
	return p.Headings["h1"]
}

// BrokenLink records an outbound link whose liveness probe failed
type BrokenLink struct {
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
	Status int    `json:"status" yaml:"status"`
}
