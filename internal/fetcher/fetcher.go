// Package fetcher retrieves pages as a lazy sequence of text lines.
package fetcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxLineBytes bounds a single line. Minified pages put everything on
// one line, so this is well above bufio's 64 KiB default.
const DefaultMaxLineBytes = 1 << 20

// ErrStatus is wrapped by FetchError when the server answers with an error status.
var ErrStatus = errors.New("unexpected status")

// Fetcher opens a page for line-by-line reading.
type Fetcher interface {
	// Fetch returns the page's lines or a *FetchError. The caller must
	// Close the returned Lines.
	Fetch(ctx context.Context, url string) (Lines, error)
}

// Lines is a lazy, forward-only sequence of text lines.
type Lines interface {
	Scan() bool
	Text() string
	// Err returns the first non-EOF error hit while scanning.
	Err() error
	Close() error
}

// FetchError reports that a page could not be opened.
type FetchError struct {
	URL   string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

type scannerLines struct {
	*bufio.Scanner
	io.Closer
}

// NewLines splits r into lines. Lines longer than maxLineBytes stop the scan
// with bufio.ErrTooLong.
func NewLines(r io.ReadCloser, maxLineBytes int) Lines {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(64*1024, maxLineBytes)), maxLineBytes)
	return scannerLines{Scanner: sc, Closer: r}
}
