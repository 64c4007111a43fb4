package agroSession

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/HarvestERP/agroSession/internal/flows"
	"github.com/HarvestERP/agroSession/internal/stores"
	"github.com/HarvestERP/agroSession/lifecycle"
)

// Coordinator defines a public type used by agroSession APIs.
//
// Coordinator instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// The coordinator owns all session-wide mutable state: the renewal-in-progress
// flag, the continuation queue, and the advisory debounce timestamp. Each
// process constructs exactly one and passes it to whatever issues requests;
// nothing here lives in package-level variables.
type Coordinator struct {
	config     Config
	httpClient *http.Client
	navigate   func(url string)
	advisory   func(message string)
	warn       func(format string, args ...any)
	now        func() time.Time

	creds      *stores.CredentialStore
	challenges *stores.ChallengeCache
	setups     *stores.SetupCache
	boltCloser func() error

	metrics     *Metrics
	unsubscribe func()

	mu           sync.Mutex
	renewing     bool
	pending      []chan renewOutcome
	lastAdvisory time.Time

	challenge    *flows.Challenge
	verification *Verification
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Coordinator) Close() {
	if c == nil {
		return
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.mu.Lock()
	v := c.verification
	c.mu.Unlock()
	if v != nil {
		v.Close()
	}
	if c.boltCloser != nil {
		if err := c.boltCloser(); err != nil {
			c.warn("agroSession: store close failed: %v", err)
		}
	}
}

// Credentials describes the credentials operation and its observable behavior.
//
// Credentials may return an error when input validation, dependency calls, or security checks fail.
// Credentials does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Coordinator) Credentials(ctx context.Context) (*Credentials, error) {
	if c == nil {
		return nil, ErrCoordinatorNotReady
	}
	pair, err := c.creds.Load(ctx)
	if err != nil {
		return nil, ErrNotAuthenticated
	}
	return &Credentials{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Coordinator) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return c.metrics.Snapshot()
}

func (c *Coordinator) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

// onLifecycle bridges page lifecycle signals into the active flows. Hidden
// flushes in-memory progress to the caches; restored re-derives every
// time-bound deadline from wall clock, since a frozen tab's timers did not
// tick while the clock advanced.
func (c *Coordinator) onLifecycle(sig lifecycle.Signal) {
	c.mu.Lock()
	v := c.verification
	c.mu.Unlock()
	if v == nil {
		return
	}
	switch sig {
	case lifecycle.SignalHidden:
		v.flush()
	case lifecycle.SignalRestored, lifecycle.SignalVisible:
		v.Tick(c.now())
	}
}
