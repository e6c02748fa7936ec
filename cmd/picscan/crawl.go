package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/user/picscan/internal/api"
	"github.com/user/picscan/internal/config"
	"github.com/user/picscan/internal/crawler"
	"github.com/user/picscan/internal/discovery"
	"github.com/user/picscan/internal/extractor"
	"github.com/user/picscan/internal/fetcher"
	"github.com/user/picscan/internal/logger"
	"github.com/user/picscan/internal/monitoring"
	"github.com/user/picscan/internal/proxy"
	"github.com/user/picscan/internal/sink"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url]",
		Short: "Crawl from a seed page and report discovered images",
		Long: `Crawl fetches the seed page and launches one worker per newly discovered
link. Every newly discovered image is handed to the configured sinks.

Examples:
  # Crawl with defaults, logging each image
  picscan crawl https://example.com

  # Show the largest images and expose stats on :8080
  picscan crawl --sink log --sink viewer --port 8080 https://example.com

  # Share discovery state through redis and record images in postgres
  picscan crawl --store redis --redis-addr localhost:6379 \
    --sink postgres --postgres-url postgres://localhost/picscan https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	f := cmd.Flags()
	f.String("seed", config.DefaultSeedURL, "Seed page URL (the positional argument wins)")
	f.Int("max-active-workers", crawler.DefaultMaxActiveWorkers, "Workers beyond this many active ones skip their page")

	f.String("fetcher", config.FetcherHTTP, "Page fetcher: http or browser")
	f.Duration("fetch-timeout", 30*time.Second, "Timeout for fetching one page")
	f.Int("max-line-bytes", fetcher.DefaultMaxLineBytes, "Longest page line that can be read")
	f.Float64("requests-per-second", 0, "Global fetch rate, 0 for unpaced")
	f.StringSlice("user-agent", nil, "User agents to rotate through (repeatable)")
	f.StringSlice("proxy", nil, "Proxy URLs to rotate through (repeatable)")
	f.String("extractor", extractor.StrategyPattern, "Extraction strategy: pattern or markup")

	f.String("store", config.StoreMemory, "Discovery store: memory or redis")
	f.String("redis-addr", "localhost:6379", "Redis address")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database")
	f.Duration("redis-ttl", 24*time.Hour, "Lifetime of discovery keys in redis")

	f.StringSlice("sink", []string{config.SinkLog}, "Image sinks: log, viewer, postgres (repeatable)")
	f.String("postgres-url", "", "Postgres connection string for the postgres sink")
	f.Int("min-image-width", sink.DefaultMinWidth, "Smallest image width the viewer shows")
	f.Int("min-image-height", sink.DefaultMinHeight, "Smallest image height the viewer shows")

	f.String("port", "", "Serve metrics, stats and the viewer on this port")
	f.String("log-level", "info", "Log level")
	f.Bool("log-dev", false, "Human readable development logging")
	f.Bool("wait", true, "Exit once the crawl goes quiet; otherwise run until interrupted")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.SeedURL = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, log, cmd.OutOrStdout())
}

// runCrawl wires one crawl run from cfg and blocks until it ends.
func runCrawl(ctx context.Context, cfg *config.Config, log *zap.Logger, out io.Writer) error {
	runID := uuid.NewString()
	metrics := monitoring.NewMetrics()
	checks := make(map[string]api.Pinger)

	pm, err := proxy.NewManager(cfg.Proxies, cfg.UserAgents)
	if err != nil {
		return err
	}

	f, closeFetcher, err := newFetcher(cfg, pm, log)
	if err != nil {
		return err
	}
	defer closeFetcher()

	ex, err := extractor.New(cfg.Extractor)
	if err != nil {
		return err
	}

	pages, images, closeStores, err := newStores(ctx, cfg, runID, checks)
	if err != nil {
		return err
	}
	defer closeStores()

	imageSink, viewer, closeSinks, err := newSink(ctx, cfg, runID, log, checks)
	if err != nil {
		return err
	}
	defer closeSinks()

	c := crawler.New(f, pages, images, imageSink,
		crawler.WithMaxActiveWorkers(cfg.MaxActiveWorkers),
		crawler.WithExtractor(ex),
		crawler.WithMetrics(metrics),
		crawler.WithLogger(log),
		crawler.WithRunID(runID),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.ServerPort != "" {
		var vs api.ViewerSource
		if viewer != nil {
			vs = viewer
		}
		server := api.NewServer(cfg.ServerPort, c, vs, checks, metrics, log)
		g.Go(func() error {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := c.Launch(gctx, cfg.SeedURL); err != nil {
		cancel()
		_ = g.Wait()
		return err
	}

	g.Go(func() error {
		defer cancel()
		if !cfg.Wait {
			<-gctx.Done()
			log.Info("crawl interrupted")
			return nil
		}
		if err := c.Wait(gctx); err != nil {
			log.Info("crawl interrupted before going quiet")
			return nil
		}
		log.Info("crawl finished")
		return nil
	})

	err = g.Wait()

	stats := c.Stats()
	fmt.Fprintf(out, "run %s: %d pages claimed, %d images claimed, %d workers started, %d abstained, %d failed\n",
		stats.RunID, stats.PagesClaimed, stats.ImagesClaimed,
		stats.WorkersStarted, stats.WorkersAbstained, stats.WorkersFailed)
	return err
}

func newFetcher(cfg *config.Config, pm *proxy.Manager, log *zap.Logger) (fetcher.Fetcher, func(), error) {
	if cfg.Fetcher == config.FetcherBrowser {
		b, err := fetcher.NewBrowser(cfg.FetchTimeout, pm, cfg.MaxLineBytes, log)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}
	h := fetcher.NewHTTP(cfg.FetchTimeout, pm,
		fetcher.WithRequestsPerSecond(cfg.RequestsPerSecond),
		fetcher.WithMaxLineBytes(cfg.MaxLineBytes),
	)
	return h, func() {}, nil
}

// newStores creates the page and image sets for one run.
func newStores(ctx context.Context, cfg *config.Config, runID string, checks map[string]api.Pinger) (discovery.Store, discovery.Store, func(), error) {
	if cfg.Store != config.StoreRedis {
		return discovery.NewMemory(), discovery.NewMemory(), func() {}, nil
	}

	client := discovery.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pages := discovery.NewRedis(client, runID, discovery.KindPages, cfg.RedisTTL)
	images := discovery.NewRedis(client, runID, discovery.KindImages, cfg.RedisTTL)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pages.Ping(pingCtx); err != nil {
		client.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	checks["redis"] = pages
	return pages, images, func() { client.Close() }, nil
}

// newSink builds the configured sinks. The viewer is returned separately
// so the HTTP surface can show its current image.
func newSink(ctx context.Context, cfg *config.Config, runID string, log *zap.Logger, checks map[string]api.Pinger) (sink.Sink, *sink.Viewer, func(), error) {
	var (
		sinks   []sink.Sink
		viewer  *sink.Viewer
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, sink.NewLog(log))
		case config.SinkViewer:
			viewer = sink.NewViewer(nil, cfg.FetchTimeout, cfg.MinImageWidth, cfg.MinImageHeight, log)
			sinks = append(sinks, viewer)
		case config.SinkPostgres:
			pg, err := sink.NewPostgres(ctx, cfg.PostgresURL, runID, log)
			if err != nil {
				closeAll()
				return nil, nil, nil, err
			}
			checks["postgres"] = pg
			closers = append(closers, pg.Close)
			sinks = append(sinks, pg)
		}
	}
	return sink.NewMulti(log, sinks...), viewer, closeAll, nil
}
