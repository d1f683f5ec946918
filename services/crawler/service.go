package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"

	"memorialcrawl/lib/scrapers/memorial"
	"memorialcrawl/lib/telemetry"
	"memorialcrawl/lib/waitutil"
	"memorialcrawl/services/crawler/db"
)

var tracer = telemetry.Tracer("memorialcrawl.services.crawler")

type Discoverer interface {
	Discover(ctx context.Context, searchUrl string, maxScrollSteps int) ([]string, error)
}

type Fetcher interface {
	Memorial(ctx context.Context, url string) (memorial.Record, error)
}

type Options struct {
	// concurrent fetch workers, defaults to 4
	Workers int
	// politeness delay bounds applied by each worker between
	// memorials, defaults to 1s-3s
	MinDelay time.Duration
	MaxDelay time.Duration
	// scroll iteration cap for discovery, defaults to 50
	MaxScrollSteps int
}

// Service runs the crawl pipeline: discover the listing once, then
// fetch and extract every memorial under a bounded worker pool, handing
// each completed record to the sink exactly once.
type Service struct {
	discoverer Discoverer
	fetcher    Fetcher
	sink       RecordSink
	store      *db.Store
	opts       Options
}

// NewService wires the pipeline together. `store` may be nil, in which
// case runs are not resumable.
func NewService(discoverer Discoverer, fetcher Fetcher, sink RecordSink, store *db.Store, opts Options) Service {
	if opts.Workers == 0 {
		opts.Workers = 4
	}
	if opts.MinDelay == 0 && opts.MaxDelay == 0 {
		opts.MinDelay = time.Second
		opts.MaxDelay = time.Second * 3
	}
	if opts.MaxScrollSteps == 0 {
		opts.MaxScrollSteps = 50
	}
	return Service{
		discoverer: discoverer,
		fetcher:    fetcher,
		sink:       sink,
		store:      store,
		opts:       opts,
	}
}

type Summary struct {
	Discovered int
	Written    int
	Failed     int
	Skipped    int
}

type outcome struct {
	url    string
	record memorial.Record
	err    error
}

// Run executes one full crawl. A discovery failure aborts the run; a
// per-url failure is contained to that url. Cancelling the context
// stops dispatching new work and lets in-flight fetches finish or time
// out.
func (s Service) Run(ctx context.Context, searchUrl string) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	links, err := s.discoverer.Discover(ctx, searchUrl, s.opts.MaxScrollSteps)
	if err != nil {
		span.SetStatus(codes.Error, "discovery failed")
		return Summary{}, fmt.Errorf("discovery failed: %w", err)
	}
	summary := Summary{Discovered: len(links)}

	var done map[string]bool
	if s.store != nil {
		done, err = s.store.DoneUrls(ctx)
		if err != nil {
			return summary, fmt.Errorf("read crawl state: %w", err)
		}
	}
	var pending []string
	for _, url := range links {
		if done[url] {
			summary.Skipped++
			continue
		}
		pending = append(pending, url)
	}

	jobs := make(chan string)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go s.worker(ctx, jobs, results, &wg)
	}
	go func() {
		defer close(jobs)
		for _, url := range pending {
			select {
			case jobs <- url:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		s.collect(ctx, res, &summary)
	}

	slog.InfoContext(
		ctx, "crawl finished",
		"discovered", summary.Discovered,
		"written", summary.Written,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

func (s Service) worker(ctx context.Context, jobs <-chan string, results chan<- outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	for url := range jobs {
		record, err := s.fetcher.Memorial(ctx, url)
		results <- outcome{url: url, record: record, err: err}

		if err := waitutil.Sleep(ctx, s.opts.MinDelay, s.opts.MaxDelay); err != nil {
			return
		}
	}
}

func (s Service) collect(ctx context.Context, res outcome, summary *Summary) {
	if res.err != nil {
		summary.Failed++
		slog.WarnContext(ctx, "memorial failed permanently", "url", res.url, "err", res.err)

		if s.store != nil {
			attempts := 0
			var fetchErr *memorial.FetchError
			if errors.As(res.err, &fetchErr) {
				attempts = fetchErr.Attempts
			}
			err := s.store.NoteFailed(ctx, res.url, attempts, res.err.Error())
			if err != nil {
				slog.WarnContext(ctx, "failed to note url failure", "url", res.url, "err", err)
			}
		}
		return
	}

	if err := s.sink.Append(ctx, res.record); err != nil {
		summary.Failed++
		slog.ErrorContext(ctx, "failed to append record to sink", "url", res.url, "err", err)
		return
	}
	if s.store != nil {
		if err := s.store.NoteDone(ctx, res.url); err != nil {
			slog.WarnContext(ctx, "failed to note url done", "url", res.url, "err", err)
		}
	}
	summary.Written++
}
