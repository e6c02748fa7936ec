package discovery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "picscan"

// Redis is a Store backed by Redis, letting several crawler processes share
// one crawl. Keys are namespaced by run id and kind, so two runs (or the page
// and image sets of one run) never see each other's entries.
type Redis struct {
	client *redis.Client
	runID  string
	kind   string
	ttl    time.Duration
}

// NewRedisClient builds the go-redis client shared by the page and image stores.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedis returns the set named kind for the crawl run runID. Keys expire
// after ttl so an abandoned run does not leak state.
func NewRedis(client *redis.Client, runID, kind string, ttl time.Duration) *Redis {
	return &Redis{client: client, runID: runID, kind: kind, ttl: ttl}
}

func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Claim uses SET NX, which checks and inserts in one server-side step.
func (s *Redis) Claim(ctx context.Context, ref string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(ref), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s %q: %w", s.kind, ref, err)
	}
	return ok, nil
}

// key hashes the reference so arbitrary page text stays a safe key.
func (s *Redis) key(ref string) string {
	h := sha256.Sum256([]byte(ref))
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, s.runID, s.kind, hex.EncodeToString(h[:]))
}
