package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/user/picscan/internal/domain"
	"github.com/user/picscan/internal/monitoring"
	"go.uber.org/zap"
)

// StatsSource reports crawl counters.
type StatsSource interface {
	Stats() domain.CrawlStats
}

// ViewerSource reports the image on display.
type ViewerSource interface {
	Current() (domain.ViewerImage, bool)
}

// Pinger is a backend the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	port       string
	router     http.Handler
	httpServer *http.Server
	stats      StatsSource
	viewer     ViewerSource
	checks     map[string]Pinger
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewServer builds the read-only HTTP surface of a crawl. viewer may be nil
// when no viewer sink is configured; checks maps backend names to pingers.
func NewServer(port string, stats StatsSource, viewer ViewerSource, checks map[string]Pinger, m *monitoring.Metrics, l *zap.Logger) *Server {
	s := &Server{
		port:    port,
		stats:   stats,
		viewer:  viewer,
		checks:  checks,
		metrics: m,
		logger:  l,
	}
	s.router = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a
// shutdown, even one that happened before Start was called.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("port", s.port))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
