package agroSession

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/HarvestERP/agroSession/internal/flows"
	internalmetrics "github.com/HarvestERP/agroSession/internal/metrics"
)

// Credentials is the access/refresh credential pair. Both values are replaced
// atomically on every renewal; the previous refresh credential is invalid the
// moment the rotation succeeds.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is returned by [Coordinator.Login]. It carries either the
// credential pair, or the challenge descriptor when a second factor is
// required (in which case nothing was persisted to the credential store).
type LoginResult struct {
	AccessToken  string
	RefreshToken string

	MFARequired bool
	MFAToken    string
	UserID      string
	EmailHint   string
}

// ChallengeDescriptor hands a just-received login challenge into
// [Coordinator.StartVerification]. Passing nil falls through to in-memory
// state and then the persisted challenge cache.
type ChallengeDescriptor struct {
	MFAToken  string
	UserID    string
	EmailHint string
}

// VerifyResult is returned by [Verification.Submit] on success.
// AcknowledgeRequired is true when the warning reports zero remaining backup
// codes: the caller must surface an explicit continue affordance and call
// [Verification.Acknowledge]; auto-advancing is only permitted otherwise.
type VerifyResult struct {
	AccessToken          string
	RefreshToken         string
	Warning              string
	BackupCodesRemaining int
	AcknowledgeRequired  bool
}

// SetupSession is the one-time MFA enrollment session returned by
// [Coordinator.BeginTOTPSetup] and [Coordinator.ResumeTOTPSetup].
type SetupSession struct {
	Secret        string
	QRCodeDataURL string
	ExpiresAt     time.Time
}

// Profile is the minimal authenticated-user record reloaded after a
// successful verification.
type Profile struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
}

// Request is one outbound call through the pipeline. Body is marshaled to
// JSON unless it is a []byte, which is sent raw; requests are replayable
// because the pipeline re-serializes from these fields on retry.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Response is a successful (2xx) pipeline result.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// VerifyState is the verification state machine position.
type VerifyState = flows.VerifyState

const (
	// StateCollecting is an exported constant or variable used by the session coordinator.
	StateCollecting = flows.StateCollecting
	// StateSubmitting is an exported constant or variable used by the session coordinator.
	StateSubmitting = flows.StateSubmitting
	// StateSuccess is an exported constant or variable used by the session coordinator.
	StateSuccess = flows.StateSuccess
	// StateWarnAck is an exported constant or variable used by the session coordinator.
	StateWarnAck = flows.StateWarnAck
	// StateLockedOut is an exported constant or variable used by the session coordinator.
	StateLockedOut = flows.StateLockedOut
	// StateExpired is an exported constant or variable used by the session coordinator.
	StateExpired = flows.StateExpired
	// StateCanceled is an exported constant or variable used by the session coordinator.
	StateCanceled = flows.StateCanceled
	// StateNoChallenge is an exported constant or variable used by the session coordinator.
	StateNoChallenge = flows.StateNoChallenge
)

// EntryMode is the active collecting sub-mode.
type EntryMode = flows.EntryMode

const (
	// ModeTOTP is an exported constant or variable used by the session coordinator.
	ModeTOTP = flows.ModeTOTP
	// ModeBackup is an exported constant or variable used by the session coordinator.
	ModeBackup = flows.ModeBackup
)

// DigitCount is the fixed width of the time-based code entry.
const DigitCount = flows.DigitCount

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricRenewSuccess is an exported constant or variable used by the session coordinator.
	MetricRenewSuccess = internalmetrics.MetricRenewSuccess
	// MetricRenewFailure is an exported constant or variable used by the session coordinator.
	MetricRenewFailure = internalmetrics.MetricRenewFailure
	// MetricRenewQueued is an exported constant or variable used by the session coordinator.
	MetricRenewQueued = internalmetrics.MetricRenewQueued
	// MetricRenewAhead is an exported constant or variable used by the session coordinator.
	MetricRenewAhead = internalmetrics.MetricRenewAhead
	// MetricRequestRetried is an exported constant or variable used by the session coordinator.
	MetricRequestRetried = internalmetrics.MetricRequestRetried
	// MetricRateLimitWait is an exported constant or variable used by the session coordinator.
	MetricRateLimitWait = internalmetrics.MetricRateLimitWait
	// MetricRateLimitAdvisory is an exported constant or variable used by the session coordinator.
	MetricRateLimitAdvisory = internalmetrics.MetricRateLimitAdvisory
	// MetricRateLimitExhausted is an exported constant or variable used by the session coordinator.
	MetricRateLimitExhausted = internalmetrics.MetricRateLimitExhausted
	// MetricLoginSuccess is an exported constant or variable used by the session coordinator.
	MetricLoginSuccess = internalmetrics.MetricLoginSuccess
	// MetricLoginMFARequired is an exported constant or variable used by the session coordinator.
	MetricLoginMFARequired = internalmetrics.MetricLoginMFARequired
	// MetricLoginFailure is an exported constant or variable used by the session coordinator.
	MetricLoginFailure = internalmetrics.MetricLoginFailure
	// MetricVerifySuccess is an exported constant or variable used by the session coordinator.
	MetricVerifySuccess = internalmetrics.MetricVerifySuccess
	// MetricVerifyFailure is an exported constant or variable used by the session coordinator.
	MetricVerifyFailure = internalmetrics.MetricVerifyFailure
	// MetricVerifyLockedOut is an exported constant or variable used by the session coordinator.
	MetricVerifyLockedOut = internalmetrics.MetricVerifyLockedOut
	// MetricChallengeRestored is an exported constant or variable used by the session coordinator.
	MetricChallengeRestored = internalmetrics.MetricChallengeRestored
	// MetricChallengeExpired is an exported constant or variable used by the session coordinator.
	MetricChallengeExpired = internalmetrics.MetricChallengeExpired
	// MetricChallengeCanceled is an exported constant or variable used by the session coordinator.
	MetricChallengeCanceled = internalmetrics.MetricChallengeCanceled
	// MetricSetupStarted is an exported constant or variable used by the session coordinator.
	MetricSetupStarted = internalmetrics.MetricSetupStarted
	// MetricSetupConfirmed is an exported constant or variable used by the session coordinator.
	MetricSetupConfirmed = internalmetrics.MetricSetupConfirmed
	// MetricSetupExpired is an exported constant or variable used by the session coordinator.
	MetricSetupExpired = internalmetrics.MetricSetupExpired
	// MetricLogout is an exported constant or variable used by the session coordinator.
	MetricLogout = internalmetrics.MetricLogout
	// MetricSessionEvicted is an exported constant or variable used by the session coordinator.
	MetricSessionEvicted = internalmetrics.MetricSessionEvicted
)

// Metrics holds atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// MetricName returns the stable exposition name for a metric.
func MetricName(id MetricID) string {
	return internalmetrics.Name(id)
}

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{Enabled: cfg.Enabled})
}
