package fetcher

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/picscan/internal/proxy"
)

func newProxies(t *testing.T) *proxy.Manager {
	t.Helper()
	pm, err := proxy.NewManager(nil, []string{"picscan-test/1.0"})
	require.NoError(t, err)
	return pm
}

func readAll(t *testing.T, lines Lines) []string {
	t.Helper()
	defer lines.Close()
	var out []string
	for lines.Scan() {
		out = append(out, lines.Text())
	}
	require.NoError(t, lines.Err())
	return out
}

func TestHTTPFetchLinesInOrder(t *testing.T) {
	gotUA := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html>\r\n<a href=\"/a\">a</a>\n<img src=\"x.png\">\n</html>")
	}))
	defer srv.Close()

	f := NewHTTP(2*time.Second, newProxies(t))
	lines, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, []string{"<html>", `<a href="/a">a</a>`, `<img src="x.png">`, "</html>"}, readAll(t, lines))
	assert.Equal(t, "picscan-test/1.0", <-gotUA)
}

func TestHTTPFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewHTTP(2*time.Second, newProxies(t))
	_, err := f.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, srv.URL+"/missing", fe.URL)
	assert.ErrorIs(t, err, ErrStatus)
}

func TestHTTPFetchConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	f := NewHTTP(time.Second, newProxies(t))
	_, err = f.Fetch(context.Background(), "http://"+addr)

	var fe *FetchError
	assert.True(t, errors.As(err, &fe))
}

func TestHTTPFetchBadURL(t *testing.T) {
	f := NewHTTP(time.Second, newProxies(t))
	_, err := f.Fetch(context.Background(), "://nope")

	var fe *FetchError
	assert.True(t, errors.As(err, &fe))
}

func TestHTTPFetchLongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, long+"\nend")
	}))
	defer srv.Close()

	lines, err := NewHTTP(2*time.Second, newProxies(t)).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{long, "end"}, readAll(t, lines))

	lines, err = NewHTTP(2*time.Second, newProxies(t), WithMaxLineBytes(1024)).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	defer lines.Close()
	for lines.Scan() {
	}
	assert.ErrorIs(t, lines.Err(), bufio.ErrTooLong)
}

func TestHTTPFetchPaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	f := NewHTTP(2*time.Second, newProxies(t), WithRequestsPerSecond(20))
	start := time.Now()
	for i := 0; i < 3; i++ {
		lines, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		lines.Close()
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

// Needs a local Chrome; enabled with PICSCAN_TEST_CHROME=1.
func TestBrowserFetch(t *testing.T) {
	if os.Getenv("PICSCAN_TEST_CHROME") == "" {
		t.Skip("PICSCAN_TEST_CHROME not set")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<html><body><script>document.body.innerHTML += '<img src="late.png">'</script></body></html>`)
	}))
	defer srv.Close()

	b, err := NewBrowser(10*time.Second, newProxies(t), 0, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer b.Close()

	lines, err := b.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, strings.Join(readAll(t, lines), "\n"), `<img src="late.png">`)
}
