package urlservice

import (
	"net/url"
	"strings"
)

var nonNavigablePrefixes = []string{"mailto:", "tel:", "javascript:"}

// ResolveLink resolves href against base and strips any fragment.
// It returns false for empty hrefs, mailto:/tel:/javascript: links and
// anything that does not parse.
func ResolveLink(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	lower := strings.ToLower(href)
	for _, prefix := range nonNavigablePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := baseURL.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String(), true
}

// SameHost compares the host[:port] of two URLs case-insensitively
func SameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Host, ub.Host)
}

// Host returns the lowercased host[:port] of rawURL
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// IsHTTPURL reports whether rawURL uses the http or https scheme
func IsHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, "http") || strings.EqualFold(u.Scheme, "https")
}

// StripWWW removes a leading "www." host label. The URL is returned
// unchanged when there is no such label.
func StripWWW(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if !strings.HasPrefix(strings.ToLower(u.Host), "www.") {
		return rawURL
	}
	u.Host = u.Host[len("www."):]
	return u.String()
}

// Scope implements service.ScopeValidator by host[:port] equality
type Scope struct{}

// NewScope creates a same-host scope validator
func NewScope() *Scope {
	return &Scope{}
}

// IsInScope implements service.ScopeValidator
func (s *Scope) IsInScope(url, siteURL string) bool {
	return IsHTTPURL(url) && SameHost(siteURL, url)
}
