package sink

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/user/picscan/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultMinWidth  = 200
	DefaultMinHeight = 150
)

// maxHeaderBytes bounds how much of a picture is read to learn its size.
const maxHeaderBytes = 1 << 20

// Viewer keeps the most recent sufficiently large image as the current
// picture. Only the image header is decoded.
type Viewer struct {
	client    *http.Client
	timeout   time.Duration
	minWidth  int
	minHeight int
	logger    *zap.Logger

	mu      sync.RWMutex
	current *domain.ViewerImage
}

func NewViewer(client *http.Client, timeout time.Duration, minWidth, minHeight int, logger *zap.Logger) *Viewer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Viewer{
		client:    client,
		timeout:   timeout,
		minWidth:  minWidth,
		minHeight: minHeight,
		logger:    logger,
	}
}

func (v *Viewer) Notify(ref string) {
	if err := v.Show(ref); err != nil {
		v.logger.Warn("error displaying image", zap.String("image", ref), zap.Error(err))
	}
}

// Show downloads ref and makes it current if it meets the minimum size.
// Images that are too small or in an unknown format are skipped without
// error.
func (v *Viewer) Show(ref string) error {
	picURL := strings.ReplaceAll(ref, " ", "%20")

	ctx := context.Background()
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, picURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("download: status %d", resp.StatusCode)
	}

	cfg, format, err := image.DecodeConfig(io.LimitReader(resp.Body, maxHeaderBytes))
	if errors.Is(err, image.ErrFormat) {
		v.logger.Debug("unsupported image format", zap.String("image", picURL))
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if cfg.Width < v.minWidth || cfg.Height < v.minHeight {
		v.logger.Debug("image below minimum size",
			zap.String("image", picURL), zap.Int("width", cfg.Width), zap.Int("height", cfg.Height))
		return nil
	}

	v.mu.Lock()
	v.current = &domain.ViewerImage{
		Ref:     picURL,
		Format:  format,
		Width:   cfg.Width,
		Height:  cfg.Height,
		ShownAt: time.Now(),
	}
	v.mu.Unlock()
	return nil
}

// Current returns the image on display, if any.
func (v *Viewer) Current() (domain.ViewerImage, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.current == nil {
		return domain.ViewerImage{}, false
	}
	return *v.current, true
}
