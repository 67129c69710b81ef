package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/WangYihang/SEO-Auditor/pkg/application"
	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
)

type fakeAuditor struct {
	mu       sync.Mutex
	requests []entity.CrawlRequest
	report   *entity.Report
	err      error
}

func (f *fakeAuditor) Execute(_ context.Context, req entity.CrawlRequest) (*entity.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.report, f.err
}

func (f *fakeAuditor) calls() []entity.CrawlRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.CrawlRequest(nil), f.requests...)
}

func newTestServer(auditor *fakeAuditor) *httptest.Server {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "seo_audit_runs_total 1")
	})
	server := NewServer(func() (Auditor, error) { return auditor, nil }, metrics, nil)
	return httptest.NewServer(server.Handler())
}

func sampleReport(partial bool) *entity.Report {
	return &entity.Report{
		Site:          entity.Site{URL: "https://example.com/", Host: "example.com", PagesCrawled: 1},
		Inputs:        entity.Inputs{MaxPages: 25, MaxDepth: 2},
		PriorityFixes: entity.NewPriorityFixes(),
		Pages:         []*entity.Page{entity.NewPage("https://example.com/", 0)},
		BrokenLinks:   []entity.BrokenLink{},
		Partial:       partial,
	}
}

func TestAudit_Parameters(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantReq    *entity.CrawlRequest
	}{
		{
			name:       "defaults",
			query:      "url=https://example.com/",
			wantStatus: http.StatusOK,
			wantReq:    &entity.CrawlRequest{StartURL: "https://example.com/", MaxPages: 25, MaxDepth: 2},
		},
		{
			name:       "explicit limits and keyword",
			query:      "url=https://example.com/&target_keyword=blue+widgets&max_pages=200&max_depth=0",
			wantStatus: http.StatusOK,
			wantReq:    &entity.CrawlRequest{StartURL: "https://example.com/", TargetKeyword: "blue widgets", MaxPages: 200, MaxDepth: 0},
		},
		{name: "missing url", query: "max_pages=3", wantStatus: http.StatusUnprocessableEntity},
		{name: "max pages too small", query: "url=https://example.com/&max_pages=0", wantStatus: http.StatusUnprocessableEntity},
		{name: "max pages too large", query: "url=https://example.com/&max_pages=201", wantStatus: http.StatusUnprocessableEntity},
		{name: "max depth negative", query: "url=https://example.com/&max_depth=-1", wantStatus: http.StatusUnprocessableEntity},
		{name: "max depth too large", query: "url=https://example.com/&max_depth=6", wantStatus: http.StatusUnprocessableEntity},
		{name: "not an integer", query: "url=https://example.com/&max_pages=ten", wantStatus: http.StatusUnprocessableEntity},
		{name: "unknown format", query: "url=https://example.com/&format=xml", wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditor := &fakeAuditor{report: sampleReport(false)}
			ts := newTestServer(auditor)
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/audit?" + tt.query)
			if err != nil {
				t.Fatalf("GET error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			if tt.wantReq == nil {
				if calls := auditor.calls(); len(calls) != 0 {
					t.Errorf("auditor called %d times for a rejected request", len(calls))
				}
				var body entity.ErrorReport
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
					t.Errorf("error body = %+v, %v", body, err)
				}
				return
			}

			calls := auditor.calls()
			if len(calls) != 1 {
				t.Fatalf("auditor called %d times, want 1", len(calls))
			}
			if got := calls[0]; got != *tt.wantReq {
				t.Errorf("request = %+v, want %+v", got, *tt.wantReq)
			}

			var report entity.Report
			if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
				t.Fatalf("decode report: %v", err)
			}
			if report.Site.Host != "example.com" {
				t.Errorf("report host = %q", report.Site.Host)
			}
		})
	}
}

func TestAudit_InvalidURL(t *testing.T) {
	auditor := &fakeAuditor{err: fmt.Errorf("%w: blocked host", application.ErrRequestInvalid)}
	ts := newTestServer(auditor)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/audit?url=http://127.0.0.1/")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 || body["error"] != entity.InvalidRequestMessage {
		t.Errorf("body = %v, want only error %q", body, entity.InvalidRequestMessage)
	}
}

func TestAudit_PartialReport(t *testing.T) {
	auditor := &fakeAuditor{report: sampleReport(true), err: context.DeadlineExceeded}
	ts := newTestServer(auditor)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/audit?url=https://example.com/")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var report entity.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !report.Partial {
		t.Error("partial flag lost")
	}
}

func TestAudit_InternalError(t *testing.T) {
	auditor := &fakeAuditor{err: fmt.Errorf("boom")}
	ts := newTestServer(auditor)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/audit?url=https://example.com/")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
}

func TestAudit_YAML(t *testing.T) {
	auditor := &fakeAuditor{report: sampleReport(false)}
	ts := newTestServer(auditor)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/audit?url=https://example.com/&format=yaml")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := readAll(t, resp); !strings.Contains(body, "host: example.com") {
		t.Errorf("yaml body = %q", body)
	}
}

func TestCORSAndAuxiliaryRoutes(t *testing.T) {
	ts := newTestServer(&fakeAuditor{report: sampleReport(false)})
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/audit", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "ok"},
		{"/metrics", "seo_audit_runs_total"},
	}
	for _, tt := range tests {
		resp, err := http.Get(ts.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s error = %v", tt.path, err)
		}
		body := readAll(t, resp)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.Contains(body, tt.want) {
			t.Errorf("GET %s = %d %q", tt.path, resp.StatusCode, body)
		}
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("GET %s Access-Control-Allow-Origin = %q", tt.path, got)
		}
	}
}

func TestAudit_FactoryError(t *testing.T) {
	server := NewServer(func() (Auditor, error) { return nil, fmt.Errorf("no resolver") }, nil, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit?url=https://example.com/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestServer_NoMetrics(t *testing.T) {
	server := NewServer(func() (Auditor, error) { return &fakeAuditor{}, nil }, nil, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	var sb strings.Builder
	if _, err := io.Copy(&sb, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return sb.String()
}
