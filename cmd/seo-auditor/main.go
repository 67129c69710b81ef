package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/WangYihang/SEO-Auditor/pkg/application"
	"github.com/WangYihang/SEO-Auditor/pkg/common"
	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
	"github.com/WangYihang/SEO-Auditor/pkg/infrastructure/metrics"
	"github.com/WangYihang/SEO-Auditor/pkg/interface/api"
	"github.com/WangYihang/SEO-Auditor/pkg/interface/cli"
	"github.com/WangYihang/SEO-Auditor/pkg/interface/presenter"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// Exit codes
const (
	exitOK      = 0
	exitError   = 1
	exitInvalid = 2
	exitPartial = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	config, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	if config.ShowVersion {
		fmt.Println(common.PV.String())
		return exitOK
	}

	// Create assembler
	assembler := cli.NewAssembler(config)
	logger := assembler.Logger()

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	collector := metrics.NewCollector()
	if config.MetricsAddr != "" {
		go func() {
			if err := collector.Serve(ctx, config.MetricsAddr); err != nil {
				logger.WithError(err).Error("metrics server failed")
			}
		}()
	}

	if config.ServeAddr != "" {
		return serve(ctx, assembler, collector, logger, config.ServeAddr)
	}
	return audit(ctx, cancel, assembler, collector, logger, config)
}

// serve runs the HTTP API until interrupted
func serve(ctx context.Context, assembler *cli.Assembler, collector *metrics.Collector, logger *logrus.Logger, addr string) int {
	server := api.NewServer(func() (api.Auditor, error) {
		useCase, err := assembler.AssembleUseCase()
		if err != nil {
			return nil, err
		}
		useCase.RegisterProgressObserver(collector)
		return useCase, nil
	}, collector.Handler(), logger)

	if err := server.Serve(ctx, addr); err != nil {
		logger.WithError(err).Error("api server failed")
		return exitError
	}
	return exitOK
}

// audit runs a single audit and writes its report
func audit(ctx context.Context, cancel context.CancelFunc, assembler *cli.Assembler, collector *metrics.Collector, logger *logrus.Logger, config *cli.Config) int {
	// Assemble use case with all dependencies
	useCase, err := assembler.AssembleUseCase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	useCase.RegisterProgressObserver(collector)

	writer, err := assembler.AssembleReportWriter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer writer.Close()

	request := assembler.Request()

	var (
		report *entity.Report
		runErr error
	)

	switch {
	case config.ShowDashboard:
		dashboard := presenter.NewDashboard()
		useCase.RegisterProgressObserver(dashboard)

		// Run dashboard in TUI mode
		p := tea.NewProgram(dashboard, tea.WithAltScreen())

		// Run use case in background
		done := make(chan struct{})
		go func() {
			defer close(done)
			report, runErr = useCase.Execute(ctx, request)
			p.Quit()
		}()

		// Start TUI
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		}

		// Quitting the dashboard early stops the crawl
		cancel()
		<-done

	case config.ShowProgress:
		bar := presenter.NewProgressBar(os.Stderr, progressLabel(request.StartURL), request.WithDefaults().MaxPages)
		useCase.RegisterProgressObserver(bar)
		report, runErr = useCase.Execute(ctx, request)
		bar.Wait()

	default:
		report, runErr = useCase.Execute(ctx, request)
	}

	if errReport, ok := application.ErrorReportFor(runErr); ok {
		logger.WithError(runErr).Error("audit rejected")
		if err := writer.Write(errReport); err != nil {
			logger.WithError(err).Error("failed to write error report")
		}
		return exitInvalid
	}
	if report == nil {
		logger.WithError(runErr).Error("audit failed")
		return exitError
	}

	if err := writer.Write(report); err != nil {
		logger.WithError(err).Error("failed to write report")
		return exitError
	}
	if err := presenter.PrintSummary(os.Stderr, report); err != nil {
		logger.WithError(err).Debug("failed to print summary")
	}

	if runErr != nil {
		if errors.Is(runErr, context.DeadlineExceeded) {
			logger.Warn("deadline reached, report is partial")
		} else {
			logger.WithError(runErr).Warn("audit interrupted, report is partial")
		}
		return exitPartial
	}

	logger.WithFields(logrus.Fields{
		"pages":  report.Site.PagesCrawled,
		"issues": report.PriorityFixes.Total(),
	}).Info("audit completed")
	return exitOK
}

func progressLabel(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}
