package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
	"gopkg.in/yaml.v3"
)

func TestVisitedSet_Basic(t *testing.T) {
	set := NewVisitedSet(Config{
		Size:              1000,
		FalsePositiveRate: 0.01,
	})

	testURL := "https://example.com/"

	if set.Contains(testURL) {
		t.Errorf("Set should not contain %s initially", testURL)
	}
	if !set.MarkVisited(testURL) {
		t.Errorf("MarkVisited(%s) = false on first call", testURL)
	}
	if set.MarkVisited(testURL) {
		t.Errorf("MarkVisited(%s) = true on second call", testURL)
	}
	if !set.Contains(testURL) {
		t.Errorf("Set should contain %s after MarkVisited", testURL)
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
}

func TestVisitedSet_NoFalsePositives(t *testing.T) {
	// a tiny, saturated filter answers "maybe" for nearly everything
	set := NewVisitedSet(Config{Size: 1, FalsePositiveRate: 0.5})

	for i := 0; i < 500; i++ {
		set.MarkVisited(fmt.Sprintf("https://example.com/%d", i))
	}
	for i := 500; i < 1000; i++ {
		url := fmt.Sprintf("https://example.com/%d", i)
		if set.Contains(url) {
			t.Fatalf("Contains(%s) = true for an unseen URL", url)
		}
	}
}

func TestVisitedSet_Concurrent(t *testing.T) {
	set := NewVisitedSet(Config{Size: 100, FalsePositiveRate: 0.01})

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if set.MarkVisited("https://example.com/") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("MarkVisited succeeded %d times, want 1", wins)
	}
}

func TestFrontier_FIFO(t *testing.T) {
	frontier := NewFrontier(entity.FrontierEntry{URL: "https://a.test/", Depth: 0})

	for i := 1; i <= 200; i++ {
		frontier.Enqueue(entity.FrontierEntry{URL: fmt.Sprintf("https://a.test/%d", i), Depth: 1})
	}
	if frontier.Len() != 201 {
		t.Fatalf("Len() = %d, want 201", frontier.Len())
	}

	entry, ok := frontier.Dequeue()
	if !ok || entry.URL != "https://a.test/" || entry.Depth != 0 {
		t.Fatalf("Dequeue() = %+v, %v", entry, ok)
	}
	for i := 1; i <= 200; i++ {
		entry, ok := frontier.Dequeue()
		want := fmt.Sprintf("https://a.test/%d", i)
		if !ok || entry.URL != want {
			t.Fatalf("Dequeue() #%d = %+v, want %s", i, entry, want)
		}
	}

	if _, ok := frontier.Dequeue(); ok {
		t.Error("Dequeue() on empty frontier returned ok")
	}
	if frontier.Len() != 0 {
		t.Errorf("Len() = %d, want 0", frontier.Len())
	}
}

func TestReportWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	writer := NewStreamWriter(&buf, FormatJSON)

	page := entity.NewPage("https://a.test", 0)
	page.Title = "Fish & Chips <Shop>"
	report := &entity.Report{
		Site:          entity.Site{URL: "https://a.test", Host: "a.test", PagesCrawled: 1},
		PriorityFixes: entity.NewPriorityFixes(),
		Pages:         []*entity.Page{page},
		BrokenLinks:   []entity.BrokenLink{},
	}
	if err := writer.Write(report); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	site := decoded["site"].(map[string]any)
	if site["pages_crawled"].(float64) != 1 {
		t.Errorf("pages_crawled = %v, want 1", site["pages_crawled"])
	}
	if !strings.Contains(buf.String(), "Fish & Chips <Shop>") {
		t.Error("HTML characters in output should not be escaped")
	}
}

func TestReportWriter_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")

	writer, err := NewReportWriter(path, "YAML")
	if err != nil {
		t.Fatalf("NewReportWriter() error = %v", err)
	}
	if err := writer.Write(entity.ErrorReport{Error: entity.InvalidRequestMessage}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var decoded entity.ErrorReport
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if decoded.Error != entity.InvalidRequestMessage {
		t.Errorf("error = %q, want %q", decoded.Error, entity.InvalidRequestMessage)
	}
}

func TestNewReportWriter_UnknownFormat(t *testing.T) {
	if _, err := NewReportWriter("-", "xml"); err == nil {
		t.Error("NewReportWriter(xml) should fail")
	}
}
