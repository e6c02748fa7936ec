// Package crawler launches page workers. Every newly claimed page gets its
// own goroutine; there is no pool and no queue.
package crawler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/picscan/internal/discovery"
	"github.com/user/picscan/internal/domain"
	"github.com/user/picscan/internal/extractor"
	"github.com/user/picscan/internal/fetcher"
	"github.com/user/picscan/internal/monitoring"
	"github.com/user/picscan/internal/sink"
	"go.uber.org/zap"
)

const DefaultMaxActiveWorkers = 100

// Crawler owns the active-worker counter and the admission check.
type Crawler struct {
	fetcher   fetcher.Fetcher
	extractor extractor.Extractor
	pages     discovery.Store
	images    discovery.Store
	notifier  *sink.Async
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	maxActive int64
	runID     string

	active      atomic.Int64
	outstanding sync.WaitGroup

	started       atomic.Int64
	abstained     atomic.Int64
	failed        atomic.Int64
	pagesClaimed  atomic.Int64
	imagesClaimed atomic.Int64

	mu        sync.Mutex
	seed      string
	startedAt time.Time
}

type Option func(*Crawler)

// WithMaxActiveWorkers sets the admission threshold.
func WithMaxActiveWorkers(n int) Option {
	return func(c *Crawler) { c.maxActive = int64(n) }
}

func WithExtractor(e extractor.Extractor) Option {
	return func(c *Crawler) { c.extractor = e }
}

func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Crawler) { c.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Crawler) { c.logger = l }
}

// WithRunID tags stats and log lines with the crawl run.
func WithRunID(id string) Option {
	return func(c *Crawler) { c.runID = id }
}

// New wires a crawler. The two stores must be distinct instances.
func New(f fetcher.Fetcher, pages, images discovery.Store, s sink.Sink, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:   f,
		extractor: extractor.Pattern{},
		pages:     pages,
		images:    images,
		maxActive: DefaultMaxActiveWorkers,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runID != "" {
		c.logger = c.logger.With(zap.String("run_id", c.runID))
	}
	c.notifier = sink.NewAsync(s, c.logger, c.metrics)
	return c
}

// Launch claims the seed page and starts its worker. It returns once the
// worker is running; the crawl continues in the background. A seed that is
// already claimed is not crawled again.
func (c *Crawler) Launch(ctx context.Context, seed string) error {
	c.mu.Lock()
	c.seed = seed
	c.startedAt = time.Now()
	c.mu.Unlock()

	ok, err := c.pages.Claim(ctx, seed)
	if err != nil {
		return fmt.Errorf("claim seed: %w", err)
	}
	if !ok {
		c.logger.Info("seed already claimed", zap.String("url", seed))
		return nil
	}
	c.pagesClaimed.Add(1)
	c.metrics.IncClaims(discovery.KindPages)

	c.logger.Info("crawl launched", zap.String("url", seed), zap.Int64("max_active_workers", c.maxActive))
	c.spawn(seed)
	return nil
}

// Wait blocks until no worker is running and every sink notification has
// returned, or ctx is done. It never affects scheduling.
func (c *Crawler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.outstanding.Wait()
		c.notifier.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the crawl counters.
func (c *Crawler) Stats() domain.CrawlStats {
	c.mu.Lock()
	seed, startedAt := c.seed, c.startedAt
	c.mu.Unlock()

	return domain.CrawlStats{
		RunID:            c.runID,
		Seed:             seed,
		StartedAt:        startedAt,
		WorkersStarted:   c.started.Load(),
		WorkersAbstained: c.abstained.Load(),
		WorkersFailed:    c.failed.Load(),
		WorkersActive:    c.active.Load(),
		PagesClaimed:     c.pagesClaimed.Load(),
		ImagesClaimed:    c.imagesClaimed.Load(),
	}
}

// spawn starts a worker for a page this crawler has just claimed. The
// worker counts as active from this point.
func (c *Crawler) spawn(pageURL string) {
	c.outstanding.Add(1)
	c.metrics.SetActive(c.active.Add(1))
	go c.run(pageURL)
}

// admit is the soft admission check. It reads the counter without
// reserving a slot, so concurrent spawns may overshoot the threshold.
func (c *Crawler) admit() bool {
	return c.active.Load() <= c.maxActive
}
