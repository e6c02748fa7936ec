package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/picscan/internal/discovery"
	"github.com/user/picscan/internal/extractor"
	"github.com/user/picscan/internal/fetcher"
	"github.com/user/picscan/internal/proxy"
	"go.uber.org/zap/zaptest"
)

func TestCrawlOverHTTP(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "<html>\n<a href=\"%s/about\">about</a> <img src=\"logo.png\">\n<a href='%s/broken'>x</a>\n</html>\n", srv.URL, srv.URL)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<a href=\"%s/\">home</a>\n<img class=\"hero\" src=\"%s/static/hero.jpg\">\n", srv.URL, srv.URL)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	pm, err := proxy.NewManager(nil, nil)
	require.NoError(t, err)

	for _, strategy := range []string{extractor.StrategyPattern, extractor.StrategyMarkup} {
		t.Run(strategy, func(t *testing.T) {
			ex, err := extractor.New(strategy)
			require.NoError(t, err)

			got := &collector{}
			c := New(fetcher.NewHTTP(5*time.Second, pm), discovery.NewMemory(), discovery.NewMemory(), got,
				WithExtractor(ex), WithLogger(zaptest.NewLogger(t)))

			require.NoError(t, c.Launch(context.Background(), srv.URL+"/"))
			wait(t, c)

			assert.ElementsMatch(t, []string{
				srv.URL + "//logo.png",
				srv.URL + "/static/hero.jpg",
			}, got.got())

			stats := c.Stats()
			assert.EqualValues(t, 3, stats.WorkersStarted)
			assert.EqualValues(t, 1, stats.WorkersFailed, "the broken link answers 404")
		})
	}
}
