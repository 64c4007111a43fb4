package agroSession

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/HarvestERP/agroSession/internal/envelope"
	"github.com/HarvestERP/agroSession/internal/flows"
	"github.com/HarvestERP/agroSession/internal/stores"
)

func challengeRecord(ch flows.Challenge) stores.ChallengeRecord {
	return stores.ChallengeRecord{
		Token:    ch.Token,
		UserID:   ch.UserID,
		Email:    ch.Email,
		Digits:   ch.Digits,
		CachedAt: ch.CachedAt,
	}
}

func recordChallenge(rec stores.ChallengeRecord) flows.Challenge {
	return flows.Challenge{
		Token:    rec.Token,
		UserID:   rec.UserID,
		Email:    rec.Email,
		Digits:   rec.Digits,
		CachedAt: rec.CachedAt,
	}
}

func apiMessage(status int, body []byte) string {
	return envelope.Message(status, body)
}

type verifyResponse struct {
	AccessToken          string `json:"accessToken"`
	RefreshToken         string `json:"refreshToken"`
	Warning              string `json:"warning"`
	BackupCodesRemaining *int   `json:"backupCodesRemaining"`
}

// Verification is the live MFA challenge flow. Exactly one instance is live
// per coordinator; starting a new one tears the previous one down.
//
// The lockout countdown is deliberately in-memory only: persisting it would
// not harden anything (the store is client-local and just as erasable), and
// the server-side limiter stays authoritative. A reload therefore forgets a
// lockout, matching the backend's view of the world only on the next submit.
type Verification struct {
	c *Coordinator

	mu      sync.Mutex
	machine *flows.Machine
	source  flows.ChallengeSource
	result  *VerifyResult

	stop      chan struct{}
	closeOnce sync.Once
}

// StartVerification describes the startverification operation and its observable behavior.
//
// StartVerification may return an error when input validation, dependency calls, or security checks fail.
// StartVerification does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The current challenge is resolved once, in priority order: the explicit
// descriptor from the preceding login response, the coordinator's in-memory
// state, then the persisted cache — the latter is what lets a discarded and
// recreated process resume with its digit progress and its original deadline
// intact. A descriptor re-passed for a challenge already tracked (a restored
// page replaying its navigation state) resumes that challenge rather than
// re-anchoring its deadline. With no source at all, the caller must route
// back to login.
func (c *Coordinator) StartVerification(ctx context.Context, desc *ChallengeDescriptor) (*Verification, error) {
	if c == nil {
		return nil, ErrCoordinatorNotReady
	}

	var explicit *flows.Challenge
	if desc != nil && desc.MFAToken != "" {
		explicit = &flows.Challenge{
			Token:    desc.MFAToken,
			UserID:   desc.UserID,
			Email:    desc.EmailHint,
			CachedAt: c.now(),
		}
	}
	c.mu.Lock()
	memory := c.challenge
	c.mu.Unlock()

	resolved, source := flows.ResolveChallenge(explicit, memory, func() (flows.Challenge, error) {
		rec, err := c.challenges.Get(ctx)
		if err != nil {
			return flows.Challenge{}, err
		}
		return recordChallenge(rec), nil
	})
	if source == flows.SourceNone {
		return nil, ErrChallengeNotFound
	}
	if source == flows.SourceCache {
		c.metricInc(MetricChallengeRestored)
	}

	machine := flows.NewMachine(resolved, c.config.Challenge.TTL, c.config.Challenge.BackupCodeMinLength)
	machine.Tick(c.now())
	if machine.State == flows.StateExpired {
		_ = c.challenges.Delete(ctx)
		c.metricInc(MetricChallengeExpired)
		return nil, ErrChallengeExpired
	}

	v := &Verification{c: c, machine: machine, source: source, stop: make(chan struct{})}
	if source != flows.SourceCache {
		if err := c.challenges.Save(ctx, challengeRecord(resolved)); err != nil {
			c.warn("agroSession: challenge cache write failed: %v", err)
		}
	}

	c.mu.Lock()
	c.challenge = &resolved
	previous := c.verification
	c.verification = v
	c.mu.Unlock()
	if previous != nil {
		previous.Close()
	}
	return v, nil
}

// State reports the state machine position.
func (v *Verification) State() VerifyState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.State
}

// Mode reports the active collecting sub-mode.
func (v *Verification) Mode() EntryMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Mode
}

// Digits returns a copy of the six digit slots; zero bytes are empty slots.
func (v *Verification) Digits() [DigitCount]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Entry.Slots
}

// Focus returns the focused slot position.
func (v *Verification) Focus() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Entry.Focus
}

// EmailHint returns the identity hint shown next to the challenge.
func (v *Verification) EmailHint() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Challenge.Email
}

// Message returns the last surfaced failure message.
func (v *Verification) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Message
}

// Result returns the settled verification result, nil before success.
func (v *Verification) Result() *VerifyResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result
}

// ExpiresIn returns the remaining challenge lifetime, derived from the
// absolute deadline and the wall clock.
func (v *Verification) ExpiresIn() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.ExpiresIn(v.c.now())
}

// LockoutRemaining returns the remaining lockout window.
func (v *Verification) LockoutRemaining() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.LockoutRemaining(v.c.now())
}

// CanSubmit reports whether submission is currently allowed.
func (v *Verification) CanSubmit() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.CanSubmit(v.c.now())
}

// EnterDigit writes one digit at the focused slot and persists the progress.
func (v *Verification) EnterDigit(d byte) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.machine.InputAllowed() || !v.machine.Entry.Input(d) {
		return false
	}
	v.persistLocked()
	return true
}

// SetDigit writes one digit into an explicit slot and persists the progress.
func (v *Verification) SetDigit(pos int, d byte) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.machine.InputAllowed() || !v.machine.Entry.Set(pos, d) {
		return false
	}
	v.persistLocked()
	return true
}

// Backspace clears backwards from the focused slot.
func (v *Verification) Backspace() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.machine.InputAllowed() {
		return
	}
	v.machine.Entry.Backspace()
	v.persistLocked()
}

// Paste fans a pasted string out across the slots from the focused position.
func (v *Verification) Paste(s string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.machine.InputAllowed() {
		return false
	}
	v.machine.Entry.Paste(s)
	v.persistLocked()
	return true
}

// SetBackupCode replaces the backup-code input. Backup codes are single-use
// secrets and are never written to the cache.
func (v *Verification) SetBackupCode(code string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.SetBackup(code)
}

// ToggleMode switches the entry sub-mode, clearing input in both modes.
func (v *Verification) ToggleMode() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.machine.ToggleMode() {
		return false
	}
	v.persistLocked()
	return true
}

// Tick advances both countdowns against the given wall-clock time. The
// expiry transition clears the challenge cache.
func (v *Verification) Tick(now time.Time) {
	v.mu.Lock()
	changed := v.machine.Tick(now)
	expired := changed && v.machine.State == flows.StateExpired
	v.mu.Unlock()
	if expired {
		v.clearChallenge(context.Background())
		v.c.metricInc(MetricChallengeExpired)
	}
}

// Run drives Tick once per second until ctx is done or the verification is
// closed. Both countdowns re-derive from absolute timestamps on every tick,
// so a suspended process resumes with correct remaining times.
func (v *Verification) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-v.stop:
				return
			case <-ticker.C:
				v.Tick(v.c.now())
			}
		}
	}()
}

// Submit describes the submit operation and its observable behavior.
//
// Submit may return an error when input validation, dependency calls, or security checks fail.
// Submit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (v *Verification) Submit(ctx context.Context) (*VerifyResult, error) {
	v.mu.Lock()
	now := v.c.now()
	gate := v.machine.BeginSubmit(now)
	if gate != flows.GateOK {
		state := v.machine.State
		v.mu.Unlock()
		switch gate {
		case flows.GateBusy:
			return nil, ErrSubmitInFlight
		case flows.GateIncomplete:
			return nil, ErrCodeIncomplete
		case flows.GateLocked:
			return nil, ErrChallengeLocked
		case flows.GateExpired:
			v.Tick(now)
			return nil, ErrChallengeExpired
		default:
			if state == flows.StateCanceled {
				return nil, ErrChallengeCanceled
			}
			return nil, ErrVerifyRejected
		}
	}
	token := v.machine.Challenge.Token
	code := v.machine.Code()
	method := "totp"
	if v.machine.Mode == flows.ModeBackup {
		method = "backup"
	}
	v.mu.Unlock()

	status, body, callErr := v.c.plainCall(ctx, http.MethodPost, v.c.config.API.VerifyPath, map[string]string{
		"mfaToken": token,
		"code":     code,
		"method":   method,
	}, "")

	outcome := flows.SubmitOutcome{BackupCodesRemaining: -1}
	switch {
	case callErr != nil:
		outcome.Message = envelope.GenericNetworkMessage
	case status >= 200 && status < 300:
		var decoded verifyResponse
		if err := json.Unmarshal(body, &decoded); err != nil || decoded.AccessToken == "" || decoded.RefreshToken == "" {
			outcome.Message = envelope.GenericClientMessage
			break
		}
		outcome.Success = true
		outcome.AccessToken = decoded.AccessToken
		outcome.RefreshToken = decoded.RefreshToken
		outcome.Warning = decoded.Warning
		if decoded.BackupCodesRemaining != nil {
			outcome.BackupCodesRemaining = *decoded.BackupCodesRemaining
		}
	default:
		outcome.Message = apiMessage(status, body)
		if env, ok := envelope.Parse(body); ok {
			outcome.RetryAfterSeconds = env.RetryAfterSeconds
		}
	}

	v.mu.Lock()
	if v.machine.State != flows.StateSubmitting {
		// Canceled or force-expired while the call was in flight; the late
		// response is discarded.
		v.mu.Unlock()
		return nil, ErrChallengeCanceled
	}
	now = v.c.now()

	if outcome.Success {
		if err := v.c.creds.Save(ctx, stores.CredentialPair{
			AccessToken:  outcome.AccessToken,
			RefreshToken: outcome.RefreshToken,
		}); err != nil {
			v.machine.State = flows.StateCollecting
			v.mu.Unlock()
			return nil, err
		}
	}

	v.machine.FinishSubmit(now, outcome, int(v.c.config.Challenge.LockoutFallback/time.Second))
	state := v.machine.State
	var result *VerifyResult
	if state == flows.StateSuccess || state == flows.StateWarnAck {
		result = &VerifyResult{
			AccessToken:          outcome.AccessToken,
			RefreshToken:         outcome.RefreshToken,
			Warning:              outcome.Warning,
			BackupCodesRemaining: outcome.BackupCodesRemaining,
			AcknowledgeRequired:  v.machine.AcknowledgeRequired,
		}
		v.result = result
	}
	message := v.machine.Message
	v.mu.Unlock()

	switch state {
	case flows.StateSuccess, flows.StateWarnAck:
		v.clearChallenge(ctx)
		v.c.metricInc(MetricVerifySuccess)
		if _, err := v.c.Profile(ctx); err != nil {
			v.c.warn("agroSession: profile reload failed: %v", err)
		}
		return result, nil
	case flows.StateLockedOut:
		v.c.metricInc(MetricVerifyLockedOut)
		return nil, fmt.Errorf("%w: %s", ErrChallengeLocked, message)
	case flows.StateExpired:
		v.clearChallenge(ctx)
		v.c.metricInc(MetricChallengeExpired)
		return nil, ErrChallengeExpired
	default:
		v.c.metricInc(MetricVerifyFailure)
		return nil, fmt.Errorf("%w: %s", ErrVerifyRejected, message)
	}
}

// Acknowledge releases a verification parked behind the low-backup-codes
// warning. Required before proceeding when zero codes remain.
func (v *Verification) Acknowledge() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Acknowledge()
}

// AcknowledgeRequired reports whether the warning demands an explicit
// continue affordance instead of auto-advancing.
func (v *Verification) AcknowledgeRequired() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.AcknowledgeRequired
}

// Cancel clears the challenge cache and in-memory state before the caller
// navigates back to login.
func (v *Verification) Cancel(ctx context.Context) error {
	v.mu.Lock()
	canceled := v.machine.Cancel()
	v.mu.Unlock()
	if canceled {
		v.clearChallenge(ctx)
		v.c.metricInc(MetricChallengeCanceled)
	}
	v.Close()
	return nil
}

// Close releases the ticker. It never touches persisted state: a closed
// verification must remain resumable from the cache.
func (v *Verification) Close() {
	v.closeOnce.Do(func() { close(v.stop) })
}

// flush persists the in-memory digit progress; invoked on the hidden
// lifecycle signal so a freeze right after it loses nothing.
func (v *Verification) flush() {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch v.machine.State {
	case flows.StateCollecting, flows.StateLockedOut, flows.StateSubmitting:
		v.persistLocked()
	}
}

func (v *Verification) persistLocked() {
	ch := v.machine.Challenge
	ch.Digits = v.machine.Entry.Slots
	// The in-memory record mirrors the cache so a re-resolved challenge
	// carries the same digit progress regardless of which source wins.
	v.c.mu.Lock()
	v.c.challenge = &ch
	v.c.mu.Unlock()
	if err := v.c.challenges.Save(context.Background(), challengeRecord(ch)); err != nil {
		v.c.warn("agroSession: challenge cache write failed: %v", err)
	}
}

func (v *Verification) clearChallenge(ctx context.Context) {
	if err := v.c.challenges.Delete(ctx); err != nil {
		v.c.warn("agroSession: challenge cache clear failed: %v", err)
	}
	v.c.mu.Lock()
	v.c.challenge = nil
	v.c.mu.Unlock()
}
