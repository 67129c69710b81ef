package cli

import (
	"fmt"
	"os"

	"github.com/WangYihang/SEO-Auditor/pkg/application"
	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
	"github.com/WangYihang/SEO-Auditor/pkg/domain/repository"
	"github.com/WangYihang/SEO-Auditor/pkg/domain/service"
	"github.com/WangYihang/SEO-Auditor/pkg/infrastructure/dns"
	"github.com/WangYihang/SEO-Auditor/pkg/infrastructure/domainservice"
	"github.com/WangYihang/SEO-Auditor/pkg/infrastructure/extractor"
	"github.com/WangYihang/SEO-Auditor/pkg/infrastructure/http"
	"github.com/WangYihang/SEO-Auditor/pkg/infrastructure/storage"
	"github.com/WangYihang/SEO-Auditor/pkg/infrastructure/urlservice"
	"github.com/sirupsen/logrus"
)

// Assembler assembles all components for the application
type Assembler struct {
	config *Config
	logger *logrus.Logger
}

// NewAssembler creates a new assembler
func NewAssembler(config *Config) *Assembler {
	return &Assembler{config: config, logger: NewLogger(config)}
}

// NewLogger creates the stderr logger described by the config
func NewLogger(config *Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// Logger returns the shared logger
func (a *Assembler) Logger() *logrus.Logger {
	return a.logger
}

// Request builds the audit request from the flags
func (a *Assembler) Request() entity.CrawlRequest {
	return entity.CrawlRequest{
		StartURL:      a.config.URL,
		TargetKeyword: a.config.Keyword,
		MaxPages:      a.config.MaxPages,
		MaxDepth:      a.config.MaxDepth,
	}
}

// AssembleUseCase assembles the audit use case with all dependencies
func (a *Assembler) AssembleUseCase() (*application.AuditUseCase, error) {
	// Create DNS resolver
	var resolver service.HostResolver
	if len(a.config.DNSServers) > 0 {
		resolver = dns.NewResolver(dns.Config{
			Servers: a.config.DNSServers,
			Timeout: a.config.DNSTimeoutDuration,
		})
	} else {
		resolver = dns.NewSystemResolver()
	}

	// Create HTTP fetcher
	fetcher := http.NewFetcher(http.Config{
		Timeout:           a.config.HTTPTimeoutDuration,
		MaxResponseSize:   a.config.MaxResponseSize,
		UserAgent:         a.config.UserAgent,
		RequestsPerSecond: a.config.RateLimit,
		Burst:             a.config.NumWorkers,
	})

	bloomSize := uint(a.config.BloomFilterSize)
	bloomFP := a.config.BloomFilterFP

	useCase := application.NewAuditUseCase(
		application.Config{
			NumWorkers:                  a.config.NumWorkers,
			ProbeWorkers:                a.config.ProbeWorkers,
			ProbeCap:                    a.config.ProbeCap,
			Deadline:                    a.config.Deadline,
			ReportDuplicateDescriptions: a.config.ReportDuplicateDescriptions,
		},
		application.Dependencies{
			Guard:      urlservice.NewGuard(resolver),
			Fetcher:    fetcher,
			Prober:     fetcher,
			Extractor:  extractor.NewExtractor(),
			Advisor:    domainservice.NewSuggester(),
			Classifier: domainservice.NewClassifier(),
			Scope:      urlservice.NewScope(),
			Calculator: domainservice.NewCalculator(),
			NewFrontier: func() repository.Frontier {
				return storage.NewFrontier()
			},
			NewVisitedSet: func() repository.VisitedSet {
				return storage.NewVisitedSet(storage.Config{Size: bloomSize, FalsePositiveRate: bloomFP})
			},
			Logger: a.logger,
		},
	)

	return useCase, nil
}

// AssembleReportWriter opens the configured report destination
func (a *Assembler) AssembleReportWriter() (repository.ReportWriter, error) {
	writer, err := storage.NewReportWriter(a.config.OutputFile, a.config.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create report writer: %w", err)
	}
	return writer, nil
}
