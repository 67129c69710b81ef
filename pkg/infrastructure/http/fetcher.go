package http

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/service"
	"github.com/WangYihang/SEO-Auditor/pkg/infrastructure/urlservice"
	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds every single request
	DefaultTimeout = 15 * time.Second
	// DefaultMaxResponseSize caps how much of a body is read
	DefaultMaxResponseSize = 10 * 1024 * 1024
	maxRedirects           = 10
)

// Fetcher implements service.PageFetcher and service.LinkProber
type Fetcher struct {
	client          *http.Client
	maxResponseSize int64
	userAgent       string
	limiter         *rate.Limiter

	probes      singleflight.Group
	probeMu     sync.RWMutex
	probeStatus map[string]int
}

// Config holds HTTP fetcher configuration
type Config struct {
	Timeout         time.Duration
	MaxResponseSize int64
	UserAgent       string
	// RequestsPerSecond of zero or less disables rate limiting
	RequestsPerSecond float64
	Burst             int
	Transport         http.RoundTripper
}

// NewFetcher creates a new HTTP fetcher
func NewFetcher(config Config) *Fetcher {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxResponseSize <= 0 {
		config.MaxResponseSize = DefaultMaxResponseSize
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		maxResponseSize: config.MaxResponseSize,
		userAgent:       config.UserAgent,
		limiter:         rate.NewLimiter(limit, config.Burst),
		probeStatus:     make(map[string]int),
	}
}

// Fetch implements service.PageFetcher. A transport failure on a www. host
// is retried once against the bare host.
func (f *Fetcher) Fetch(ctx context.Context, url string) *service.FetchResult {
	start := time.Now()

	status, body, err := f.get(ctx, url)
	if err == nil {
		return &service.FetchResult{Status: status, Body: body, Elapsed: time.Since(start), FinalURL: url}
	}

	alt := urlservice.StripWWW(url)
	if alt == url || ctx.Err() != nil {
		return &service.FetchResult{Elapsed: time.Since(start), Error: err.Error(), FinalURL: url}
	}

	status, body, altErr := f.get(ctx, alt)
	if altErr != nil {
		return &service.FetchResult{
			Elapsed:  time.Since(start),
			Error:    fmt.Sprintf("%v | fallback: %v", err, altErr),
			FinalURL: alt,
		}
	}
	return &service.FetchResult{Status: status, Body: body, Elapsed: time.Since(start), FinalURL: alt}
}

// ProbeLink implements service.LinkProber. Results are memoized for the
// lifetime of the fetcher and concurrent probes of one URL share a request.
func (f *Fetcher) ProbeLink(ctx context.Context, url string) int {
	f.probeMu.RLock()
	status, ok := f.probeStatus[url]
	f.probeMu.RUnlock()
	if ok {
		return status
	}

	v, _, _ := f.probes.Do(url, func() (interface{}, error) {
		status := f.probe(ctx, url)
		// a probe cut short by cancellation says nothing about the link
		if ctx.Err() == nil {
			f.probeMu.Lock()
			f.probeStatus[url] = status
			f.probeMu.Unlock()
		}
		return status, nil
	})
	return v.(int)
}

func (f *Fetcher) probe(ctx context.Context, url string) int {
	status, err := f.head(ctx, url)
	if err != nil {
		return 0
	}
	if status >= 400 || status == http.StatusMethodNotAllowed {
		status, _, err = f.get(ctx, url)
		if err != nil {
			return 0
		}
	}
	return status
}

func (f *Fetcher) head(ctx context.Context, url string) (int, error) {
	resp, err := f.do(ctx, http.MethodHead, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (int, []byte, error) {
	resp, err := f.do(ctx, http.MethodGet, url)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := f.readBody(resp)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (f *Fetcher) do(ctx context.Context, method, url string) (*http.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	return f.client.Do(req)
}

// readBody decompresses and converts the body to UTF-8
func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxResponseSize))
	if err != nil {
		return nil, err
	}

	decoded, err := decompress(resp.Header.Get("Content-Encoding"), raw, f.maxResponseSize)
	if err != nil {
		return nil, err
	}
	if len(decoded) == 0 {
		return decoded, nil
	}

	reader, err := charset.NewReader(bytes.NewReader(decoded), resp.Header.Get("Content-Type"))
	if err != nil {
		// unknown charset, keep the bytes as they are
		return decoded, nil
	}
	text, err := io.ReadAll(reader)
	if err != nil {
		return decoded, nil
	}
	return text, nil
}

func decompress(encoding string, raw []byte, limit int64) ([]byte, error) {
	var reader io.Reader
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return raw, nil
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			// some servers send raw deflate without the zlib header
			reader = flate.NewReader(bytes.NewReader(raw))
		} else {
			defer zr.Close()
			reader = zr
		}
	case "br":
		reader = brotli.NewReader(bytes.NewReader(raw))
	default:
		return raw, nil
	}

	out, err := io.ReadAll(io.LimitReader(reader, limit))
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("decode %s body: %w", encoding, err)
	}
	return out, nil
}
