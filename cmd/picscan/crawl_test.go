package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSite(t *testing.T) *httptest.Server {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "<a href=\"%s/gallery\">gallery</a>\n<img src=\"%s/a.png\">\n", srv.URL, srv.URL)
	})
	mux.HandleFunc("/gallery", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<img src=\"b.png\"><img src=\"%s/a.png\">\n<a href=\"%s/\">home</a>\n", srv.URL, srv.URL)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCrawlCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := newSite(t)

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"crawl", "--log-level", "error", "--sink", "log", srv.URL + "/"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "2 pages claimed, 2 images claimed, 2 workers started, 0 abstained, 0 failed")
}

func TestCrawlCommandRejectsBadConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"crawl", "--store", "disk", "http://a.com"})
	assert.ErrorContains(t, cmd.Execute(), "unknown store")

	cmd = NewRootCmd()
	cmd.SetArgs([]string{"crawl", "not a url"})
	assert.ErrorContains(t, cmd.Execute(), "invalid seed url")
}
