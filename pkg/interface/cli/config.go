package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/WangYihang/SEO-Auditor/pkg/common"
	"github.com/jessevdk/go-flags"
)

// Config holds all application configuration
type Config struct {
	// Audit request
	URL      string `short:"u" long:"url" description:"Start URL of the site to audit"`
	Keyword  string `short:"k" long:"keyword" description:"Target keyword to check pages against"`
	MaxPages int    `long:"max-pages" description:"Maximum number of pages to crawl" default:"25"`
	MaxDepth int    `long:"max-depth" description:"Maximum link depth from the start URL" default:"2"`

	// Crawling
	NumWorkers                  int           `long:"workers" description:"Number of concurrent page workers" default:"4"`
	ProbeWorkers                int           `long:"probe-workers" description:"Concurrent link probes per page" default:"8"`
	ProbeCap                    int           `long:"probe-cap" description:"Links probed per page (negative disables probing)" default:"30"`
	ReportDuplicateDescriptions bool          `long:"report-duplicate-descriptions" description:"Report pages sharing a meta description"`
	Deadline                    time.Duration `long:"deadline" description:"Abort the crawl after this long and report partial results (0 = no limit)" default:"0s"`

	// HTTP
	HTTPTimeout     int     `long:"http-timeout" description:"HTTP request timeout in seconds" default:"15"`
	MaxResponseSize int64   `long:"max-response-size" description:"Maximum HTTP response size in bytes" default:"10485760"`
	UserAgent       string  `long:"user-agent" description:"HTTP User-Agent header (default SEOAuditBot/<version>)"`
	RateLimit       float64 `long:"rate-limit" description:"Maximum requests per second (0 = unlimited)" default:"0"`

	// Real HTTP timeout duration (not parsed from flags directly)
	HTTPTimeoutDuration time.Duration

	// DNS
	DNSServers []string `long:"dns-server" description:"DNS server used to vet the start host, host:port (repeatable; default system resolver)"`
	DNSTimeout int      `long:"dns-timeout" description:"DNS query timeout in seconds" default:"5"`

	// Real DNS timeout duration
	DNSTimeoutDuration time.Duration

	// Dedup
	BloomFilterSize uint64  `long:"bloom-size" description:"Expected number of visited URLs per run" default:"10000"`
	BloomFilterFP   float64 `long:"bloom-fp" description:"Bloom filter false positive rate" default:"0.01"`

	// Output
	OutputFile string `short:"o" long:"output" description:"Report output file (- for stdout)" default:"-"`
	Format     string `short:"f" long:"format" description:"Report format" choice:"json" choice:"yaml" default:"json"`

	// UI
	ShowDashboard bool `long:"dashboard" description:"Show interactive TUI dashboard"`
	ShowProgress  bool `long:"progress" description:"Show a progress bar on stderr"`

	// Server
	ServeAddr   string `long:"serve" description:"Serve the audit API on this address instead of running one audit"`
	MetricsAddr string `long:"metrics-addr" description:"Expose Prometheus metrics on this address"`

	// Logging
	LogLevel string `long:"log-level" description:"Log level" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	LogJSON  bool   `long:"log-json" description:"Emit logs as JSON"`

	ShowVersion bool `short:"v" long:"version" description:"Print version information and exit"`
}

// ParseFlags parses command line flags
func ParseFlags() (*Config, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{}

	parser := flags.NewParser(cfg, flags.Default)
	parser.Usage = "[OPTIONS]"

	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			// Help has been printed by the library, exit cleanly
			os.Exit(0)
		}
		return nil, err
	}

	if cfg.ShowVersion {
		return cfg, nil
	}

	// Convert timeouts
	cfg.HTTPTimeoutDuration = time.Duration(cfg.HTTPTimeout) * time.Second
	cfg.DNSTimeoutDuration = time.Duration(cfg.DNSTimeout) * time.Second

	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.Keyword = strings.TrimSpace(cfg.Keyword)
	if cfg.UserAgent == "" {
		cfg.UserAgent = common.PV.UserAgent()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.URL == "" && c.ServeAddr == "" {
		return fmt.Errorf("a start URL (--url) is required unless --serve is set")
	}

	if c.MaxPages < 1 {
		return fmt.Errorf("max pages must be >= 1, got %d", c.MaxPages)
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must be >= 0, got %d", c.MaxDepth)
	}

	if c.NumWorkers <= 0 {
		return fmt.Errorf("number of workers must be > 0, got %d", c.NumWorkers)
	}

	if c.ProbeWorkers <= 0 {
		return fmt.Errorf("number of probe workers must be > 0, got %d", c.ProbeWorkers)
	}

	if c.Deadline < 0 {
		return fmt.Errorf("deadline must be >= 0, got %s", c.Deadline)
	}

	if c.HTTPTimeoutDuration <= 0 {
		return fmt.Errorf("HTTP timeout must be > 0, got %s", c.HTTPTimeoutDuration)
	}

	if c.DNSTimeoutDuration <= 0 {
		return fmt.Errorf("DNS timeout must be > 0, got %s", c.DNSTimeoutDuration)
	}

	if c.MaxResponseSize <= 0 {
		return fmt.Errorf("max response size must be > 0, got %d", c.MaxResponseSize)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be >= 0, got %f", c.RateLimit)
	}

	if c.BloomFilterFP <= 0 || c.BloomFilterFP >= 1 {
		return fmt.Errorf("bloom filter false positive rate must be between 0 and 1, got %f", c.BloomFilterFP)
	}

	if c.ShowDashboard && c.ShowProgress {
		return fmt.Errorf("--dashboard and --progress are mutually exclusive")
	}

	return nil
}
