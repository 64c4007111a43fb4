package agroSession

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/HarvestERP/agroSession/internal/stores"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// testClock is a hand-advanced wall clock injected into the coordinator so
// deadline behavior is tested against controlled time, never sleeps. It is
// anchored to real time because the persisted caches keep their own wall
// clock; advancing only moves the coordinator ahead of them, which matches a
// process whose timers stalled while frozen.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().Truncate(time.Second)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCoordinator(t *testing.T, handler http.Handler, opts ...func(*Builder)) (*Coordinator, *testClock, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	srv := httptest.NewServer(handler)

	builder := New().
		WithBaseURL(srv.URL).
		WithRedis(rdb).
		WithMetricsEnabled(true)
	for _, opt := range opts {
		opt(builder)
	}

	c, err := builder.Build()
	if err != nil {
		srv.Close()
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	clock := newTestClock()
	c.now = clock.Now
	c.warn = func(string, ...any) {}

	return c, clock, func() {
		c.Close()
		srv.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func seedCredentials(t *testing.T, c *Coordinator, access, refresh string) {
	t.Helper()
	err := c.creds.Save(context.Background(), stores.CredentialPair{
		AccessToken:  access,
		RefreshToken: refresh,
	})
	if err != nil {
		t.Fatalf("seed credentials failed: %v", err)
	}
}

func storedCredentials(t *testing.T, c *Coordinator) stores.CredentialPair {
	t.Helper()
	pair, err := c.creds.Load(context.Background())
	if err != nil {
		t.Fatalf("load credentials failed: %v", err)
	}
	return pair
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
