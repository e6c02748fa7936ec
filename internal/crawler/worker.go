package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/picscan/internal/discovery"
	"github.com/user/picscan/internal/fetcher"
	"go.uber.org/zap"
)

// run is the body of one page worker.
func (c *Crawler) run(pageURL string) {
	defer c.outstanding.Done()
	defer func() { c.metrics.SetActive(c.active.Add(-1)) }()

	if !c.admit() {
		c.abstained.Add(1)
		c.metrics.IncWorkers("abstained")
		c.logger.Debug("too many active workers, skipping page", zap.String("url", pageURL))
		return
	}
	c.started.Add(1)
	c.metrics.IncWorkers("started")

	logger := c.logger.With(zap.String("url", pageURL))
	defer func() {
		if r := recover(); r != nil {
			c.failed.Add(1)
			c.metrics.IncWorkers("failed")
			c.metrics.IncErrors("panic")
			logger.Error("worker panicked", zap.Any("panic", r))
		}
	}()

	if err := c.scan(context.Background(), pageURL); err != nil {
		c.failed.Add(1)
		c.metrics.IncWorkers("failed")
		c.metrics.IncErrors(errorType(err))
		logger.Warn("worker stopped", zap.Error(err))
		return
	}
	logger.Debug("page scanned")
}

// scan walks the page line by line. Within a line, links are claimed
// before images.
func (c *Crawler) scan(ctx context.Context, pageURL string) error {
	lines, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return err
	}
	defer lines.Close()

	for lines.Scan() {
		line := lines.Text()

		for _, link := range c.extractor.Links(line) {
			ok, err := c.pages.Claim(ctx, link)
			if err != nil {
				return fmt.Errorf("claim page %s: %w", link, err)
			}
			if ok {
				c.pagesClaimed.Add(1)
				c.metrics.IncClaims(discovery.KindPages)
				c.spawn(link)
			}
		}

		for _, img := range c.extractor.Images(line, pageURL) {
			ok, err := c.images.Claim(ctx, img)
			if err != nil {
				return fmt.Errorf("claim image %s: %w", img, err)
			}
			if ok {
				c.imagesClaimed.Add(1)
				c.metrics.IncClaims(discovery.KindImages)
				c.notifier.Notify(img)
			}
		}
	}
	if err := lines.Err(); err != nil {
		return fmt.Errorf("read %s: %w", pageURL, err)
	}
	return nil
}

func errorType(err error) string {
	var fe *fetcher.FetchError
	if errors.As(err, &fe) {
		return "fetch"
	}
	return "processing"
}
