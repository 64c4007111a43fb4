package stores

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisKV(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisKV(client, "agsn")
}

func newTestBoltKV(t *testing.T) *BoltKV {
	t.Helper()

	kv, err := NewBoltKV(t.TempDir() + "/session.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

// fixedClock returns a settable now func for cache deadline tests.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)}
}
