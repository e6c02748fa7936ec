package fetcher

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/picscan/internal/proxy"
	"go.uber.org/zap"
)

// Browser renders pages in a shared headless Chrome and splits the rendered
// DOM into lines. Each fetch runs in its own tab.
type Browser struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	proxies       *proxy.Manager
	timeout       time.Duration
	maxLineBytes  int
}

// NewBrowser starts the browser. Close must be called to stop it.
func NewBrowser(timeout time.Duration, pm *proxy.Manager, maxLineBytes int, logger *zap.Logger) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p := pm.NextProxy(); p != nil {
		opts = append(opts, chromedp.ProxyServer(p.String()))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	sugar := logger.Sugar()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Warnf),
	)

	// Running with no actions launches the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Browser{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		proxies:       pm,
		timeout:       timeout,
		maxLineBytes:  maxLineBytes,
	}, nil
}

func (b *Browser) Fetch(ctx context.Context, url string) (Lines, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"User-Agent": b.proxies.UserAgent()}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &FetchError{URL: url, Cause: err}
	}

	return NewLines(io.NopCloser(strings.NewReader(html)), b.maxLineBytes), nil
}

func (b *Browser) Close() {
	b.cancelBrowser()
	b.cancelAlloc()
}
