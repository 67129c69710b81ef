package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Supported report formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ReportWriter implements repository.ReportWriter
type ReportWriter struct {
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	format string
}

// NewReportWriter creates a writer for filename; "" or "-" selects stdout
func NewReportWriter(filename, format string) (*ReportWriter, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatYAML {
		return nil, fmt.Errorf("unsupported report format %q", format)
	}

	if filename == "" || filename == "-" {
		return &ReportWriter{out: os.Stdout, format: format}, nil
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &ReportWriter{out: file, closer: file, format: format}, nil
}

// NewStreamWriter creates a writer over an arbitrary stream. The stream is
// not closed by Close.
func NewStreamWriter(out io.Writer, format string) *ReportWriter {
	if format != FormatYAML {
		format = FormatJSON
	}
	return &ReportWriter{out: out, format: format}
}

// Write implements repository.ReportWriter
func (w *ReportWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.format {
	case FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
}

// Close implements io.Closer
func (w *ReportWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}
