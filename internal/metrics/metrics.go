package metrics

import "sync/atomic"

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID uint8

const (
	MetricRenewSuccess MetricID = iota
	MetricRenewFailure
	MetricRenewQueued
	MetricRenewAhead
	MetricRequestRetried
	MetricRateLimitWait
	MetricRateLimitAdvisory
	MetricRateLimitExhausted
	MetricLoginSuccess
	MetricLoginMFARequired
	MetricLoginFailure
	MetricVerifySuccess
	MetricVerifyFailure
	MetricVerifyLockedOut
	MetricChallengeRestored
	MetricChallengeExpired
	MetricChallengeCanceled
	MetricSetupStarted
	MetricSetupConfirmed
	MetricSetupExpired
	MetricLogout
	MetricSessionEvicted

	MetricIDCount
)

var names = [MetricIDCount]string{
	MetricRenewSuccess:       "renew_success",
	MetricRenewFailure:       "renew_failure",
	MetricRenewQueued:        "renew_queued",
	MetricRenewAhead:         "renew_ahead",
	MetricRequestRetried:     "request_retried",
	MetricRateLimitWait:      "rate_limit_wait",
	MetricRateLimitAdvisory:  "rate_limit_advisory",
	MetricRateLimitExhausted: "rate_limit_exhausted",
	MetricLoginSuccess:       "login_success",
	MetricLoginMFARequired:   "login_mfa_required",
	MetricLoginFailure:       "login_failure",
	MetricVerifySuccess:      "verify_success",
	MetricVerifyFailure:      "verify_failure",
	MetricVerifyLockedOut:    "verify_locked_out",
	MetricChallengeRestored:  "challenge_restored",
	MetricChallengeExpired:   "challenge_expired",
	MetricChallengeCanceled:  "challenge_canceled",
	MetricSetupStarted:       "setup_started",
	MetricSetupConfirmed:     "setup_confirmed",
	MetricSetupExpired:       "setup_expired",
	MetricLogout:             "logout",
	MetricSessionEvicted:     "session_evicted",
}

// Name returns the stable exposition name for a metric.
func Name(id MetricID) string {
	if id >= MetricIDCount {
		return "unknown"
	}
	return names[id]
}

// Config controls metric collection.
type Config struct {
	Enabled bool
}

type paddedCounter struct {
	value atomic.Uint64
	_     [56]byte
}

// Metrics holds atomic counters. When disabled, all operations are no-ops.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]paddedCounter
}

// New creates a Metrics instance configured by cfg.
func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add adds n to the counter.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].value.Add(n)
}

// Snapshot is a point-in-time deep copy of all counters.
type Snapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot captures the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	out := Snapshot{Counters: make(map[MetricID]uint64, MetricIDCount)}
	if m == nil || !m.enabled {
		return out
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		out.Counters[id] = m.counters[id].value.Load()
	}
	return out
}
