package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
	"github.com/WangYihang/SEO-Auditor/pkg/infrastructure/urlservice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "seo_audit"

// Collector implements application.ProgressObserver and exposes audit
// activity as Prometheus metrics on its own registry
type Collector struct {
	registry *prometheus.Registry

	pages         *prometheus.CounterVec
	issues        *prometheus.CounterVec
	responseTime  prometheus.Histogram
	runs          *prometheus.CounterVec
	activeWorkers prometheus.Gauge
	frontier      prometheus.Gauge
	linksProbed   prometheus.Gauge
	brokenLinks   prometheus.Gauge
}

// NewCollector creates a collector with all metrics registered
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Pages recorded, by HTTP status class.",
		}, []string{"status"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_issues_total",
			Help:      "Page-level issues, by priority and code.",
		}, []string{"priority", "code"}),
		responseTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_fetch_seconds",
			Help:      "Time spent fetching a page, including the www fallback.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished audit runs.",
		}, []string{"start_host"}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workers",
			Help:      "Workers currently processing a page.",
		}),
		frontier: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frontier_length",
			Help:      "URLs waiting in the frontier of the latest run.",
		}),
		linksProbed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "links_probed",
			Help:      "Links probed so far in the latest run.",
		}),
		brokenLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broken_links",
			Help:      "Broken links found so far in the latest run.",
		}),
	}

	c.registry.MustRegister(
		c.pages,
		c.issues,
		c.responseTime,
		c.runs,
		c.activeWorkers,
		c.frontier,
		c.linksProbed,
		c.brokenLinks,
	)
	return c
}

// OnProgress implements application.ProgressObserver
func (c *Collector) OnProgress(progress entity.Progress) {
	c.activeWorkers.Set(float64(progress.ActiveWorkers))
	c.frontier.Set(float64(progress.FrontierLength))
	c.linksProbed.Set(float64(progress.LinksProbed))
	c.brokenLinks.Set(float64(progress.BrokenLinks))
	if progress.Done {
		c.activeWorkers.Set(0)
		c.runs.WithLabelValues(startHost(progress.StartURL)).Inc()
	}
}

// OnPageRecorded implements application.ProgressObserver
func (c *Collector) OnPageRecorded(page *entity.Page) {
	c.pages.WithLabelValues(statusClass(page.Status)).Inc()
	c.responseTime.Observe((time.Duration(page.ResponseTimeMs) * time.Millisecond).Seconds())
	for _, issue := range page.Issues {
		c.issues.WithLabelValues(string(issue.Priority), string(issue.Code)).Inc()
	}
}

// Registry returns the registry backing the collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the /metrics handler
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// statusClass buckets a status code as "0", "2xx", "3xx", ...
func statusClass(status int) string {
	if status <= 0 {
		return "0"
	}
	return strconv.Itoa(status/100) + "xx"
}

func startHost(rawURL string) string {
	if host := urlservice.Host(rawURL); host != "" {
		return host
	}
	return "unknown"
}
