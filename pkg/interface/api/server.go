package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/WangYihang/SEO-Auditor/pkg/application"
	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
	"github.com/WangYihang/SEO-Auditor/pkg/infrastructure/storage"
	"github.com/sirupsen/logrus"
)

// Request limits accepted by GET /api/audit
const (
	MaxPagesLimit = 200
	MaxDepthLimit = 5
)

// Auditor runs one audit
type Auditor interface {
	Execute(ctx context.Context, req entity.CrawlRequest) (*entity.Report, error)
}

// AuditorFactory returns the auditor for one request. Each request gets a
// fresh auditor so link probe results are never shared between runs.
type AuditorFactory func() (Auditor, error)

// Server exposes the audit engine over HTTP
type Server struct {
	newAuditor AuditorFactory
	metrics    http.Handler
	logger     logrus.FieldLogger
}

// NewServer creates an API server. metrics may be nil.
func NewServer(newAuditor AuditorFactory, metrics http.Handler, logger logrus.FieldLogger) *Server {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &Server{newAuditor: newAuditor, metrics: metrics, logger: logger}
}

// Handler returns the routed handler with CORS applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/audit", s.handleAudit)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return withCORS(mux)
}

// Serve listens on addr until ctx is done
func (s *Server) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.WithField("addr", addr).Info("api server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	req, format, err := parseAuditRequest(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	logger := s.logger.WithFields(logrus.Fields{
		"url":       req.StartURL,
		"max_pages": req.MaxPages,
		"max_depth": req.MaxDepth,
	})

	auditor, err := s.newAuditor()
	if err != nil {
		logger.WithError(err).Error("failed to assemble auditor")
		writeError(w, http.StatusInternalServerError, "Audit failed.")
		return
	}

	report, err := auditor.Execute(r.Context(), req)
	if errReport, ok := application.ErrorReportFor(err); ok {
		writeReport(w, http.StatusBadRequest, format, errReport)
		return
	}
	if err != nil && report == nil {
		logger.WithError(err).Error("audit failed")
		writeError(w, http.StatusInternalServerError, "Audit failed.")
		return
	}
	if err != nil {
		logger.WithError(err).Warn("audit interrupted, returning partial report")
	}

	writeReport(w, http.StatusOK, format, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok\n")
}

// parseAuditRequest validates the query string of GET /api/audit
func parseAuditRequest(r *http.Request) (entity.CrawlRequest, string, error) {
	query := r.URL.Query()

	req := entity.CrawlRequest{
		StartURL:      strings.TrimSpace(query.Get("url")),
		TargetKeyword: strings.TrimSpace(query.Get("target_keyword")),
		MaxPages:      entity.DefaultMaxPages,
		MaxDepth:      entity.DefaultMaxDepth,
	}
	if req.StartURL == "" {
		return req, "", fmt.Errorf("url is required")
	}

	var err error
	if req.MaxPages, err = intParam(query.Get("max_pages"), entity.DefaultMaxPages, 1, MaxPagesLimit); err != nil {
		return req, "", fmt.Errorf("max_pages: %w", err)
	}
	if req.MaxDepth, err = intParam(query.Get("max_depth"), entity.DefaultMaxDepth, 0, MaxDepthLimit); err != nil {
		return req, "", fmt.Errorf("max_depth: %w", err)
	}

	format := strings.ToLower(query.Get("format"))
	switch format {
	case "", storage.FormatJSON:
		format = storage.FormatJSON
	case storage.FormatYAML:
	default:
		return req, "", fmt.Errorf("format: unsupported value %q", format)
	}

	return req, format, nil
}

func intParam(raw string, def, lo, hi int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("must be between %d and %d, got %d", lo, hi, v)
	}
	return v, nil
}

func writeReport(w http.ResponseWriter, status int, format string, v any) {
	if format == storage.FormatYAML {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_ = storage.NewStreamWriter(w, format).Write(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeReport(w, status, storage.FormatJSON, entity.ErrorReport{Error: message})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
