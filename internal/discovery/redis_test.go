package discovery

import (
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisKeyIsNamespaced(t *testing.T) {
	pages := NewRedis(nil, "run-1", KindPages, time.Hour)
	images := NewRedis(nil, "run-1", KindImages, time.Hour)
	other := NewRedis(nil, "run-2", KindPages, time.Hour)

	k := pages.key("http://x.com/a")
	assert.True(t, strings.HasPrefix(k, "picscan:run-1:pages:"))
	assert.Len(t, strings.TrimPrefix(k, "picscan:run-1:pages:"), 64)

	assert.NotEqual(t, k, images.key("http://x.com/a"))
	assert.NotEqual(t, k, other.key("http://x.com/a"))
	assert.Equal(t, k, pages.key("http://x.com/a"))
}

// Runs against a live server only when PICSCAN_TEST_REDIS_ADDR is set.
func TestRedisClaim(t *testing.T) {
	addr := os.Getenv("PICSCAN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PICSCAN_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := NewRedisClient(addr, "", 0)
	defer client.Close()

	store := NewRedis(client, uuid.NewString(), KindPages, time.Minute)
	require.NoError(t, store.Ping(ctx))

	ok, err := store.Claim(ctx, "http://x.com/a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, "http://x.com/a")
	require.NoError(t, err)
	assert.False(t, ok)

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := store.Claim(ctx, "http://x.com/b"); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
