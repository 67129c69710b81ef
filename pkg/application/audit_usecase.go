package application

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
	"github.com/WangYihang/SEO-Auditor/pkg/domain/repository"
	"github.com/WangYihang/SEO-Auditor/pkg/domain/service"
	"github.com/sirupsen/logrus"
)

// Dependencies are the collaborators of an AuditUseCase
type Dependencies struct {
	Guard      service.HostGuard
	Fetcher    service.PageFetcher
	Prober     service.LinkProber
	Extractor  service.SignalExtractor
	Advisor    service.KeywordAdvisor
	Classifier service.IssueClassifier
	Scope      service.ScopeValidator
	Calculator service.DomainCalculator

	// Per-run repositories
	NewFrontier   func() repository.Frontier
	NewVisitedSet func() repository.VisitedSet

	Logger logrus.FieldLogger
}

// AuditUseCase orchestrates crawl-and-audit runs. It holds no per-run
// state, so concurrent Execute calls are independent.
type AuditUseCase struct {
	config Config

	// Services
	guard      service.HostGuard
	fetcher    service.PageFetcher
	prober     service.LinkProber
	extractor  service.SignalExtractor
	advisor    service.KeywordAdvisor
	classifier service.IssueClassifier
	scope      service.ScopeValidator
	calculator service.DomainCalculator

	// Repositories
	newFrontier   func() repository.Frontier
	newVisitedSet func() repository.VisitedSet

	logger logrus.FieldLogger

	observersLock sync.RWMutex
	observers     []ProgressObserver
}

// NewAuditUseCase creates a new audit use case
func NewAuditUseCase(config Config, deps Dependencies) *AuditUseCase {
	logger := deps.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	return &AuditUseCase{
		config:        config.WithDefaults(),
		guard:         deps.Guard,
		fetcher:       deps.Fetcher,
		prober:        deps.Prober,
		extractor:     deps.Extractor,
		advisor:       deps.Advisor,
		classifier:    deps.Classifier,
		scope:         deps.Scope,
		calculator:    deps.Calculator,
		newFrontier:   deps.NewFrontier,
		newVisitedSet: deps.NewVisitedSet,
		logger:        logger,
	}
}

// RegisterProgressObserver registers a progress observer
func (uc *AuditUseCase) RegisterProgressObserver(observer ProgressObserver) {
	uc.observersLock.Lock()
	defer uc.observersLock.Unlock()

	uc.observers = append(uc.observers, observer)
}

// notifyProgress notifies all registered observers
func (uc *AuditUseCase) notifyProgress(progress entity.Progress) {
	uc.observersLock.RLock()
	defer uc.observersLock.RUnlock()

	for _, observer := range uc.observers {
		observer.OnProgress(progress)
	}
}

func (uc *AuditUseCase) notifyPageRecorded(page *entity.Page) {
	uc.observersLock.RLock()
	defer uc.observersLock.RUnlock()

	for _, observer := range uc.observers {
		observer.OnPageRecorded(page)
	}
}

// Execute runs one audit. An invalid or blocked start URL yields an error
// wrapping ErrRequestInvalid and no report. If ctx is cancelled or the
// configured deadline passes, the pages recorded so far are returned as a
// partial report together with the context error.
func (uc *AuditUseCase) Execute(ctx context.Context, req entity.CrawlRequest) (*entity.Report, error) {
	req = req.WithDefaults()
	req.StartURL = strings.TrimSpace(req.StartURL)
	req.TargetKeyword = strings.TrimSpace(req.TargetKeyword)

	if err := uc.guard.Check(ctx, req.StartURL); err != nil {
		uc.logger.WithError(err).WithField("url", req.StartURL).Warn("request rejected")
		return nil, fmt.Errorf("%w: %v", ErrRequestInvalid, err)
	}

	if uc.config.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.config.Deadline)
		defer cancel()
	}

	run := uc.newRun(req)
	uc.logger.WithFields(logrus.Fields{
		"url":       req.StartURL,
		"max_pages": req.MaxPages,
		"max_depth": req.MaxDepth,
		"keyword":   req.TargetKeyword,
	}).Info("audit started")

	report, err := run.crawl(ctx)

	uc.logger.WithFields(logrus.Fields{
		"url":     req.StartURL,
		"pages":   len(report.Pages),
		"issues":  report.PriorityFixes.Total(),
		"broken":  len(run.broken),
		"partial": report.Partial,
		"took":    time.Since(run.startTime),
	}).Info("audit finished")

	return report, err
}

// indexedTask is a task and its slot in the level's result slice
type indexedTask struct {
	entity.Task
	index int
}

// auditRun is the state of one Execute call
type auditRun struct {
	uc      *AuditUseCase
	req     entity.CrawlRequest
	keyword string

	frontier repository.Frontier
	visited  repository.VisitedSet
	workers  []*Worker
	sequence int

	// merged results, touched only by the crawl goroutine
	pages        []*entity.Page
	broken       []entity.BrokenLink
	titles       *urlGroups
	descriptions *urlGroups

	startTime    time.Time
	currentDepth int64
	pagesCrawled int64
	pagesFailed  int64
	linksProbed  int64
	brokenLinks  int64
	issuesFound  int64
}

func (uc *AuditUseCase) newRun(req entity.CrawlRequest) *auditRun {
	run := &auditRun{
		uc:           uc,
		req:          req,
		keyword:      req.TargetKeyword,
		frontier:     uc.newFrontier(),
		visited:      uc.newVisitedSet(),
		pages:        []*entity.Page{},
		broken:       []entity.BrokenLink{},
		titles:       newURLGroups(),
		descriptions: newURLGroups(),
		startTime:    time.Now(),
	}
	run.workers = make([]*Worker, uc.config.NumWorkers)
	for i := range run.workers {
		run.workers[i] = &Worker{id: i, run: run}
	}
	return run
}

// crawl runs a level-synchronous breadth-first traversal: every entry of
// one depth is dequeued and sequenced before any of them is processed, and
// results are merged in sequence order, so the report matches a strictly
// sequential crawl regardless of how many workers ran.
func (r *auditRun) crawl(ctx context.Context) (*entity.Report, error) {
	stop := make(chan struct{})
	var tickerDone sync.WaitGroup
	tickerDone.Add(1)
	go r.reportProgressPeriodically(ctx, stop, &tickerDone)

	r.frontier.Enqueue(entity.FrontierEntry{URL: r.req.StartURL, Depth: 0})

	var runErr error
	for r.frontier.Len() > 0 && r.visited.Len() < r.req.MaxPages {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		batch := r.dequeueLevel()
		if len(batch) == 0 {
			continue
		}
		atomic.StoreInt64(&r.currentDepth, int64(batch[0].Entry.Depth))

		results := r.processBatch(ctx, batch)
		for i, res := range results {
			if !res.completed {
				continue
			}
			r.record(batch[i].Task, res)
		}

		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
	}

	close(stop)
	tickerDone.Wait()

	report := r.assemble(runErr != nil)
	r.uc.notifyProgress(r.snapshot(true))
	return report, runErr
}

// dequeueLevel drains the entries currently queued, which all share one
// depth, applying the visited, depth, scope and page-budget checks
func (r *auditRun) dequeueLevel() []indexedTask {
	var batch []indexedTask
	n := r.frontier.Len()
	for i := 0; i < n; i++ {
		if r.visited.Len() >= r.req.MaxPages {
			break
		}
		entry, ok := r.frontier.Dequeue()
		if !ok {
			break
		}
		if entry.Depth > r.req.MaxDepth {
			continue
		}
		if !r.uc.scope.IsInScope(entry.URL, r.req.StartURL) {
			continue
		}
		if !r.visited.MarkVisited(entry.URL) {
			continue
		}

		batch = append(batch, indexedTask{
			Task:  entity.Task{Entry: entry, Sequence: r.sequence, DequeuedAt: time.Now()},
			index: len(batch),
		})
		r.sequence++
	}
	return batch
}

// processBatch runs one level through the worker pool
func (r *auditRun) processBatch(ctx context.Context, batch []indexedTask) []pageResult {
	results := make([]pageResult, len(batch))
	tasks := make(chan indexedTask, len(batch))
	for _, task := range batch {
		tasks <- task
	}
	close(tasks)

	numWorkers := len(r.workers)
	if len(batch) < numWorkers {
		numWorkers = len(batch)
	}

	var wg sync.WaitGroup
	for _, worker := range r.workers[:numWorkers] {
		wg.Add(1)
		go worker.Run(ctx, tasks, results, &wg)
	}
	wg.Wait()

	return results
}

// record merges one processed page into the run
func (r *auditRun) record(task entity.Task, res pageResult) {
	page := res.page
	r.pages = append(r.pages, page)
	atomic.AddInt64(&r.pagesCrawled, 1)
	atomic.AddInt64(&r.issuesFound, int64(len(page.Issues)))

	childDepth := task.Entry.Depth + 1
	if childDepth <= r.req.MaxDepth {
		for _, link := range res.links {
			if r.uc.scope.IsInScope(link, r.req.StartURL) && !r.visited.Contains(link) {
				r.frontier.Enqueue(entity.FrontierEntry{URL: link, Depth: childDepth})
			}
		}
	}

	r.broken = append(r.broken, res.broken...)
	atomic.AddInt64(&r.brokenLinks, int64(len(res.broken)))

	if page.Title != "" {
		r.titles.add(page.Title, page.URL)
	}
	if page.MetaDescription != "" {
		r.descriptions.add(page.MetaDescription, page.URL)
	}

	r.uc.notifyPageRecorded(page)
}

// assemble computes site-level issues and builds the report
func (r *auditRun) assemble(partial bool) *entity.Report {
	cfg := r.uc.config

	var siteIssues []entity.Issue
	r.titles.eachShared(func(title string, urls []string) {
		for _, u := range urls {
			siteIssues = append(siteIssues, r.uc.classifier.DuplicateTitle(u, title, urls))
		}
	})
	if cfg.ReportDuplicateDescriptions {
		r.descriptions.eachShared(func(description string, urls []string) {
			for _, u := range urls {
				siteIssues = append(siteIssues, r.uc.classifier.DuplicateDescription(u, description, urls))
			}
		})
	}
	if len(r.broken) > 0 {
		siteIssues = append(siteIssues, r.uc.classifier.BrokenLinks(r.broken, cfg.BrokenSampleCap))
	}

	fixes := entity.NewPriorityFixes()
	for _, page := range r.pages {
		for _, issue := range page.Issues {
			fixes.Add(issue)
		}
	}
	for _, issue := range siteIssues {
		fixes.Add(issue)
	}

	brokenList := r.broken
	if len(brokenList) > cfg.BrokenReportCap {
		brokenList = brokenList[:cfg.BrokenReportCap]
	}

	var keyword *string
	if r.keyword != "" {
		kw := r.keyword
		keyword = &kw
	}

	return &entity.Report{
		Site:          r.site(),
		Inputs:        entity.Inputs{TargetKeyword: keyword, MaxPages: r.req.MaxPages, MaxDepth: r.req.MaxDepth},
		PriorityFixes: fixes,
		Pages:         r.pages,
		BrokenLinks:   append([]entity.BrokenLink{}, brokenList...),
		Partial:       partial,
	}
}

func (r *auditRun) site() entity.Site {
	site := entity.Site{URL: r.req.StartURL, PagesCrawled: len(r.pages)}
	u, err := url.Parse(r.req.StartURL)
	if err != nil {
		return site
	}
	site.Host = strings.ToLower(u.Host)
	if r.uc.calculator != nil {
		if root, err := r.uc.calculator.GetRoot(u.Hostname()); err == nil {
			site.RegistrableDomain = root
		}
	}
	return site
}

// reportProgressPeriodically notifies observers until stop is closed
func (r *auditRun) reportProgressPeriodically(ctx context.Context, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(r.uc.config.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			r.uc.notifyProgress(r.snapshot(false))
		}
	}
}

// snapshot returns the current progress
func (r *auditRun) snapshot(done bool) entity.Progress {
	activeWorkers := 0
	var activeURLs []string
	for _, worker := range r.workers {
		if worker.IsActive() {
			activeWorkers++
			if u := worker.GetCurrentURL(); u != "" {
				activeURLs = append(activeURLs, u)
			}
		}
	}

	return entity.Progress{
		StartURL:       r.req.StartURL,
		MaxPages:       r.req.MaxPages,
		PagesCrawled:   atomic.LoadInt64(&r.pagesCrawled),
		PagesFailed:    atomic.LoadInt64(&r.pagesFailed),
		FrontierLength: r.frontier.Len(),
		CurrentDepth:   int(atomic.LoadInt64(&r.currentDepth)),
		ActiveWorkers:  activeWorkers,
		TotalWorkers:   len(r.workers),
		LinksProbed:    atomic.LoadInt64(&r.linksProbed),
		BrokenLinks:    atomic.LoadInt64(&r.brokenLinks),
		IssuesFound:    atomic.LoadInt64(&r.issuesFound),
		ActiveURLs:     activeURLs,
		StartTime:      r.startTime,
		LastUpdateTime: time.Now(),
		Done:           done,
	}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// urlGroups maps a normalized value to the URLs carrying it, remembering
// the order in which values were first seen and the first spelling of each
type urlGroups struct {
	order  []string
	values map[string]string
	urls   map[string][]string
}

func newURLGroups() *urlGroups {
	return &urlGroups{values: make(map[string]string), urls: make(map[string][]string)}
}

func (g *urlGroups) add(value, url string) {
	key := normalizeKey(value)
	if _, ok := g.urls[key]; !ok {
		g.order = append(g.order, key)
		g.values[key] = strings.TrimSpace(value)
	}
	g.urls[key] = append(g.urls[key], url)
}

// eachShared calls fn for every value carried by two or more URLs
func (g *urlGroups) eachShared(fn func(value string, urls []string)) {
	for _, key := range g.order {
		if urls := g.urls[key]; len(urls) >= 2 {
			fn(g.values[key], urls)
		}
	}
}
