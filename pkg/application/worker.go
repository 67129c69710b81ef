package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WangYihang/SEO-Auditor/pkg/domain/entity"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// pageResult is everything one processed task contributes to the report
type pageResult struct {
	page *entity.Page
	// links in document order; only set when signals were extracted
	links       []string
	broken      []entity.BrokenLink
	linksProbed int
	completed   bool
}

// Worker processes dequeued tasks of one crawl level
type Worker struct {
	id  int
	run *auditRun

	currentURL atomic.Value // stores string
	isActive   atomic.Bool
}

// Run processes tasks until the channel closes. results is indexed by the
// task's position in the level batch, so no two workers share a slot.
func (w *Worker) Run(ctx context.Context, tasks <-chan indexedTask, results []pageResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range tasks {
		if ctx.Err() != nil {
			continue
		}
		results[task.index] = w.processTask(ctx, task.Task)
	}
}

// IsActive returns whether the worker is currently processing a task
func (w *Worker) IsActive() bool {
	return w.isActive.Load()
}

// GetCurrentURL returns the URL currently being processed
func (w *Worker) GetCurrentURL() string {
	if v := w.currentURL.Load(); v != nil {
		return v.(string)
	}
	return ""
}

// processTask fetches, extracts, annotates and classifies one page
func (w *Worker) processTask(ctx context.Context, task entity.Task) pageResult {
	w.isActive.Store(true)
	w.currentURL.Store(task.Entry.URL)
	defer func() {
		w.isActive.Store(false)
		w.currentURL.Store("")
	}()

	uc := w.run.uc
	url := task.Entry.URL
	logger := uc.logger.WithFields(logrus.Fields{
		"url":    url,
		"depth":  task.Entry.Depth,
		"seq":    task.Sequence,
		"worker": w.id,
	})
	logger.WithField("queued", time.Since(task.DequeuedAt)).Debug("page started")

	page := entity.NewPage(url, task.Entry.Depth)

	fetched := uc.fetcher.Fetch(ctx, url)
	page.ResponseTimeMs = fetched.Elapsed.Milliseconds()
	if fetched.FinalURL != "" && fetched.FinalURL != url {
		page.FetchedURL = fetched.FinalURL
	}
	if ctx.Err() != nil {
		// cut short by cancellation, not a property of the page
		return pageResult{}
	}

	if fetched.Failed() {
		logger.WithField("error", fetched.Error).Warn("fetch failed")
		atomic.AddInt64(&w.run.pagesFailed, 1)
		page.Issues = append(page.Issues, uc.classifier.FetchFailed(url, fetched.Error))
		return pageResult{page: page, completed: true}
	}

	page.Status = fetched.Status
	if page.Status >= 400 {
		logger.WithField("status", page.Status).Debug("http error")
		page.Issues = append(page.Issues, uc.classifier.Classify(page)...)
		return pageResult{page: page, completed: true}
	}

	if len(fetched.Body) == 0 {
		logger.Debug("empty body, no signals")
		return pageResult{page: page, completed: true}
	}

	signals, err := uc.extractor.Extract(url, w.run.req.StartURL, fetched.Body)
	if err != nil {
		logger.WithError(err).Warn("parse failed")
		return pageResult{page: page, completed: true}
	}

	page.Title = signals.Title
	page.MetaDescription = signals.MetaDescription
	page.Headings = signals.Headings
	page.H1 = signals.H1
	page.ImagesTotal = signals.ImagesTotal
	page.ImagesMissingAlt = signals.ImagesMissingAlt
	page.WordCount = signals.WordCount
	page.InternalLinks = signals.InternalLinks
	page.ExternalLinks = signals.ExternalLinks
	page.SpeedTips = signals.SpeedTips

	keyword := w.run.keyword
	if keyword != "" {
		page.KeywordHits = uc.advisor.KeywordHits(signals, keyword)
	}
	page.Suggestions = uc.advisor.Suggest(page, keyword)
	page.Issues = append(page.Issues, uc.classifier.Classify(page)...)
	page.Issues = append(page.Issues, uc.advisor.ContentTips(page, keyword)...)

	broken, probed := w.probeLinks(ctx, url, signals.Links)
	if ctx.Err() != nil {
		return pageResult{}
	}
	logger.WithFields(logrus.Fields{
		"status": page.Status,
		"issues": len(page.Issues),
		"links":  len(signals.Links),
		"broken": len(broken),
	}).Debug("page processed")

	return pageResult{page: page, links: signals.Links, broken: broken, linksProbed: probed, completed: true}
}

// probeLinks checks the first ProbeCap links concurrently and returns the
// broken ones in link order
func (w *Worker) probeLinks(ctx context.Context, from string, links []string) ([]entity.BrokenLink, int) {
	probeCap := w.run.uc.config.ProbeCap
	if probeCap < 0 {
		return nil, 0
	}
	if len(links) > probeCap {
		links = links[:probeCap]
	}

	statuses := make([]int, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.run.uc.config.ProbeWorkers)
	for i, link := range links {
		g.Go(func() error {
			start := time.Now()
			statuses[i] = w.run.uc.prober.ProbeLink(gctx, link)
			w.run.uc.logger.WithFields(logrus.Fields{
				"link":   link,
				"status": statuses[i],
				"took":   time.Since(start),
			}).Debug("link probed")
			return nil
		})
	}
	_ = g.Wait()
	atomic.AddInt64(&w.run.linksProbed, int64(len(links)))

	var broken []entity.BrokenLink
	for i, status := range statuses {
		if status == 0 || status >= 400 {
			broken = append(broken, entity.BrokenLink{From: from, To: links[i], Status: status})
		}
	}
	return broken, len(links)
}
