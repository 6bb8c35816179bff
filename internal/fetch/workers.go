package fetch

import (
	"context"
	"sync"

	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/classifier"
	"github.com/dtnitsch/fxlens/pkg/extractor"
	"github.com/dtnitsch/fxlens/pkg/fetcher"
	"github.com/dtnitsch/fxlens/pkg/mapreduce"
	"github.com/dtnitsch/fxlens/pkg/page"
	"github.com/dtnitsch/fxlens/pkg/urlgate"
	"go.uber.org/zap"
)

// Scanner fetches pages and reports which elements a pipeline would watch.
type Scanner struct {
	Fetcher *fetcher.Fetcher
	Filter  models.FilterConfig
	Workers int
	Logger  *zap.Logger
}

// Run scans every URL with a fixed worker pool. Results come back in input
// order.
func (s *Scanner) Run(ctx context.Context, urls []string) []Result {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := s.Workers
	if workers <= 0 {
		workers = 4
	}
	gate := urlgate.New(s.Filter, logger)
	cls := classifier.New(s.Filter, logger)

	logger.Info("starting page scan", zap.Int("url_count", len(urls)), zap.Int("workers", workers))

	type indexed struct {
		i int
		r Result
	}
	jobs := make(chan int, len(urls))
	results := make(chan indexed, len(urls))
	var wg sync.WaitGroup

	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range jobs {
				results <- indexed{i: i, r: s.scan(ctx, id, logger, gate, cls, Job{URL: urls[i]})}
			}
		}(w)
	}
	for i := range urls {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(results)
	logger.Info("all scan workers finished")

	out := make([]Result, len(urls))
	for r := range results {
		out[r.i] = r.r
	}
	return out
}

func (s *Scanner) scan(ctx context.Context, id int, logger *zap.Logger, gate *urlgate.Gate, cls *classifier.Classifier, job Job) Result {
	result := Result{URL: job.URL, Allowed: gate.Allowed(job.URL)}
	if !result.Allowed {
		logger.Debug("url filtered, skipping fetch", zap.Int("worker_id", id), zap.String("url", job.URL))
		return result
	}

	doc, err := page.Load(ctx, s.Fetcher, job.URL)
	if err != nil {
		logger.Error("error fetching page", zap.Int("worker_id", id), zap.String("url", job.URL), zap.Error(err))
		result.Error = err.Error()
		result.ErrorType = "fetch_error"
		return result
	}

	result.Title = doc.Title()
	result.Candidates = len(doc.Candidates())
	var tokens []string
	for _, el := range doc.Monitored(cls) {
		rep := ElementReport{Key: el.Key, Tag: el.Tag, Text: el.Text}
		if m, ok := extractor.Extract(el.Text); ok {
			rep.Amount = m.Value.String()
			tokens = append(tokens, m.SourceText)
		}
		result.Monitored = append(result.Monitored, rep)
	}
	if markers := mapreduce.Map(tokens); len(markers) > 0 {
		result.Markers = markers
	}
	logger.Debug("page scanned", zap.Int("worker_id", id), zap.String("url", job.URL), zap.Int("monitored", len(result.Monitored)))
	return result
}

// Summarize wraps results with the most frequent currency markers.
func Summarize(results []Result, top int) Report {
	counts := make([]map[string]int, 0, len(results))
	for _, r := range results {
		counts = append(counts, r.Markers)
	}
	return Report{Pages: results, TopMarkers: mapreduce.TopMarkers(mapreduce.Reduce(counts), top)}
}
