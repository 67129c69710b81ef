package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(Config{Timeout: 5 * time.Second, UserAgent: "SEOAuditBot/test"})
}

func TestFetcher_Fetch(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><title>Home</title></html>"))
		case "/moved":
			http.Redirect(w, r, "/", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := newTestFetcher()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"ok", "/", 200, "<title>Home</title>"},
		{"redirect followed", "/moved", 200, "<title>Home</title>"},
		{"not found still returns body", "/missing", 404, "page not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := fetcher.Fetch(context.Background(), server.URL+tt.path)
			if result.Status != tt.wantStatus {
				t.Errorf("Fetch(%s).Status = %d, want %d", tt.path, result.Status, tt.wantStatus)
			}
			if !strings.Contains(string(result.Body), tt.wantBody) {
				t.Errorf("Fetch(%s).Body = %q, want it to contain %q", tt.path, result.Body, tt.wantBody)
			}
			if result.Error != "" {
				t.Errorf("Fetch(%s).Error = %q, want empty", tt.path, result.Error)
			}
			if result.FinalURL != server.URL+tt.path {
				t.Errorf("Fetch(%s).FinalURL = %s, want %s", tt.path, result.FinalURL, server.URL+tt.path)
			}
		})
	}

	if gotUA != "SEOAuditBot/test" {
		t.Errorf("User-Agent = %q, want SEOAuditBot/test", gotUA)
	}
}

func TestFetcher_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	result := newTestFetcher().Fetch(context.Background(), url)
	if !result.Failed() {
		t.Errorf("Fetch(closed server).Status = %d, want 0", result.Status)
	}
	if result.Error == "" {
		t.Error("Fetch(closed server).Error is empty")
	}
	if result.FinalURL != url {
		t.Errorf("FinalURL = %s, want %s", result.FinalURL, url)
	}
}

// wwwTransport fails every request to a www. host and forwards the rest
type wwwTransport struct {
	target string
}

func (w *wwwTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if strings.HasPrefix(req.URL.Host, "www.") {
		return nil, &timeoutError{}
	}
	clone := req.Clone(req.Context())
	clone.URL.Host = w.target
	clone.Host = w.target
	return http.DefaultTransport.RoundTrip(clone)
}

type timeoutError struct{}

func (timeoutError) Error() string { return "dial tcp: lookup failed" }

func TestFetcher_WWWFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<h1>bare host</h1>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(Config{
		Timeout:   5 * time.Second,
		Transport: &wwwTransport{target: strings.TrimPrefix(server.URL, "http://")},
	})

	result := fetcher.Fetch(context.Background(), "http://www.shop.test/page")
	if result.Status != 200 {
		t.Fatalf("Fetch().Status = %d, want 200 (error %q)", result.Status, result.Error)
	}
	if result.FinalURL != "http://shop.test/page" {
		t.Errorf("FinalURL = %s, want http://shop.test/page", result.FinalURL)
	}
	if !strings.Contains(string(result.Body), "bare host") {
		t.Errorf("Body = %q", result.Body)
	}
}

func TestFetcher_DecodesBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		switch r.URL.Path {
		case "/gzip":
			gz := gzip.NewWriter(&buf)
			_, _ = gz.Write([]byte("<p>gzipped</p>"))
			_ = gz.Close()
			w.Header().Set("Content-Encoding", "gzip")
		case "/br":
			br := brotli.NewWriter(&buf)
			_, _ = br.Write([]byte("<p>brotli</p>"))
			_ = br.Close()
			w.Header().Set("Content-Encoding", "br")
		case "/latin1":
			// "café" in ISO-8859-1
			buf.Write([]byte{'<', 'p', '>', 'c', 'a', 'f', 0xe9, '<', '/', 'p', '>'})
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		}
		_, _ = w.Write(buf.Bytes())
	}))
	defer server.Close()

	fetcher := newTestFetcher()

	tests := []struct {
		path string
		want string
	}{
		{"/gzip", "<p>gzipped</p>"},
		{"/br", "<p>brotli</p>"},
		{"/latin1", "<p>café</p>"},
	}

	for _, tt := range tests {
		result := fetcher.Fetch(context.Background(), server.URL+tt.path)
		if string(result.Body) != tt.want {
			t.Errorf("Fetch(%s).Body = %q, want %q", tt.path, result.Body, tt.want)
		}
	}
}

func TestFetcher_MaxResponseSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 1000)))
	}))
	defer server.Close()

	fetcher := NewFetcher(Config{Timeout: 5 * time.Second, MaxResponseSize: 100})
	result := fetcher.Fetch(context.Background(), server.URL)
	if len(result.Body) != 100 {
		t.Errorf("len(Body) = %d, want 100", len(result.Body))
	}
}

func TestFetcher_ProbeLink(t *testing.T) {
	var headCalls, getCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			atomic.AddInt32(&headCalls, 1)
		} else {
			atomic.AddInt32(&getCalls, 1)
		}
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/no-head":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	fetcher := newTestFetcher()
	ctx := context.Background()

	tests := []struct {
		path string
		want int
	}{
		{"/ok", 200},
		{"/no-head", 200},
		{"/gone", 404},
	}

	for _, tt := range tests {
		if got := fetcher.ProbeLink(ctx, server.URL+tt.path); got != tt.want {
			t.Errorf("ProbeLink(%s) = %d, want %d", tt.path, got, tt.want)
		}
	}

	if got := atomic.LoadInt32(&getCalls); got != 2 {
		t.Errorf("GET fallbacks = %d, want 2", got)
	}

	// memoized: a second probe must not hit the server
	before := atomic.LoadInt32(&headCalls)
	fetcher.ProbeLink(ctx, server.URL+"/ok")
	if after := atomic.LoadInt32(&headCalls); after != before {
		t.Errorf("HEAD calls after memoized probe = %d, want %d", after, before)
	}
}

func TestFetcher_ProbeLinkTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	if got := newTestFetcher().ProbeLink(context.Background(), url+"/x"); got != 0 {
		t.Errorf("ProbeLink(closed) = %d, want 0", got)
	}
}
