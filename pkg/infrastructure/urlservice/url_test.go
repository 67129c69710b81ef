package urlservice

import "testing"

func TestResolveLink(t *testing.T) {
	base := "https://example.com/services/index.html"

	tests := []struct {
		name   string
		href   string
		want   string
		wantOK bool
	}{
		{"relative path", "about.html", "https://example.com/services/about.html", true},
		{"root relative", "/contact", "https://example.com/contact", true},
		{"absolute", "https://other.org/x", "https://other.org/x", true},
		{"fragment stripped", "/faq#pricing", "https://example.com/faq", true},
		{"fragment only", "#top", "https://example.com/services/index.html", true},
		{"surrounding space", "  /a  ", "https://example.com/a", true},
		{"mailto", "mailto:info@example.com", "", false},
		{"tel", "tel:+15550100", "", false},
		{"javascript", "javascript:void(0)", "", false},
		{"javascript upper", "JavaScript:alert(1)", "", false},
		{"empty", "", "", false},
		{"unparseable", "http://[::1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveLink(base, tt.href)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ResolveLink(%q) = (%q, %v), want (%q, %v)", tt.href, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSameHost(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"https://example.com", "https://EXAMPLE.com/path", true},
		{"https://example.com", "http://example.com/", true},
		{"https://example.com", "https://www.example.com", false},
		{"https://example.com:8443", "https://example.com", false},
		{"https://example.com", "https://other.com", false},
	}

	for _, tt := range tests {
		if got := SameHost(tt.a, tt.b); got != tt.expected {
			t.Errorf("SameHost(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestIsHTTPURL(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"http://example.com", true},
		{"https://example.com/a?b=c", true},
		{"HTTPS://example.com", true},
		{"ftp://example.com", false},
		{"example.com", false},
		{"file:///etc/passwd", false},
	}

	for _, tt := range tests {
		if got := IsHTTPURL(tt.url); got != tt.expected {
			t.Errorf("IsHTTPURL(%s) = %v, want %v", tt.url, got, tt.expected)
		}
	}
}

func TestStripWWW(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.example.com/a?b=1", "https://example.com/a?b=1"},
		{"https://example.com/a", "https://example.com/a"},
		{"https://wwwexample.com/", "https://wwwexample.com/"},
		{"http://www.example.com:8080/", "http://example.com:8080/"},
	}

	for _, tt := range tests {
		if got := StripWWW(tt.url); got != tt.expected {
			t.Errorf("StripWWW(%s) = %s, want %s", tt.url, got, tt.expected)
		}
	}
}

func TestHost(t *testing.T) {
	if got := Host("https://Example.COM:443/x"); got != "example.com:443" {
		t.Errorf("Host() = %s, want example.com:443", got)
	}
}
