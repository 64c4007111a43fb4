package flows

import "time"

// VerifyState is the verification state machine position.
type VerifyState int

const (
	// StateCollecting accepts code input in the active entry mode.
	StateCollecting VerifyState = iota
	// StateSubmitting has a verification call in flight.
	StateSubmitting
	// StateSuccess is terminal: credentials were issued.
	StateSuccess
	// StateWarnAck holds a successful verification behind an explicit
	// acknowledgement of a low-backup-codes warning.
	StateWarnAck
	// StateLockedOut disables input until the lockout countdown ends.
	StateLockedOut
	// StateExpired is terminal for this challenge: the absolute deadline
	// passed and the user must restart from login.
	StateExpired
	// StateCanceled is terminal: the user chose to start over.
	StateCanceled
	// StateNoChallenge is terminal: no challenge token was resolvable.
	StateNoChallenge
)

// EntryMode is the active collecting sub-mode.
type EntryMode int

const (
	// ModeTOTP collects a six-digit time-based code.
	ModeTOTP EntryMode = iota
	// ModeBackup collects an eight-plus character backup code.
	ModeBackup
)

// SubmitGate classifies why a submission may not start.
type SubmitGate int

const (
	GateOK SubmitGate = iota
	GateExpired
	GateLocked
	GateIncomplete
	GateBusy
	GateState
)

// SubmitOutcome carries the classified result of a verification call.
// BackupCodesRemaining is -1 when the backend did not report a count.
type SubmitOutcome struct {
	Success              bool
	AccessToken          string
	RefreshToken         string
	Warning              string
	BackupCodesRemaining int
	Message              string
	RetryAfterSeconds    int
}

// Machine is the MFA verification state machine. It carries no clocks: every
// time-sensitive method takes the current wall-clock time, and both the
// expiry and lockout countdowns are re-derived from the absolute Deadline and
// LockedUntil timestamps on each call.
type Machine struct {
	State     VerifyState
	Mode      EntryMode
	Entry     DigitEntry
	Backup    string
	Challenge Challenge

	// Deadline is CachedAt+TTL, fixed when the challenge was first cached.
	Deadline    time.Time
	LockedUntil time.Time

	Message              string
	Warning              string
	AcknowledgeRequired  bool
	BackupCodesRemaining int

	backupMin int
}

// NewMachine builds a collecting machine over the resolved challenge,
// restoring any persisted digit progress.
func NewMachine(ch Challenge, ttl time.Duration, backupMin int) *Machine {
	m := &Machine{
		State:                StateCollecting,
		Challenge:            ch,
		Deadline:             ch.CachedAt.Add(ttl),
		BackupCodesRemaining: -1,
		backupMin:            backupMin,
	}
	m.Entry.Slots = ch.Digits
	m.Entry.Focus = m.Entry.firstEmpty()
	return m
}

// Expired reports whether the absolute deadline has passed.
func (m *Machine) Expired(now time.Time) bool {
	return !now.Before(m.Deadline)
}

// ExpiresIn returns the remaining challenge lifetime, floored at zero.
func (m *Machine) ExpiresIn(now time.Time) time.Duration {
	if d := m.Deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// LockoutRemaining returns the remaining lockout window, floored at zero.
func (m *Machine) LockoutRemaining(now time.Time) time.Duration {
	if m.State != StateLockedOut {
		return 0
	}
	if d := m.LockedUntil.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Tick advances the machine against wall-clock time. The absolute deadline
// wins over everything except states where the challenge has already been
// destroyed (success, acknowledgement, cancel). A lockout whose countdown
// ends after the deadline therefore surfaces as expired, never as re-enabled
// input. Returns true when the tick caused a transition.
func (m *Machine) Tick(now time.Time) bool {
	switch m.State {
	case StateSuccess, StateWarnAck, StateExpired, StateCanceled, StateNoChallenge:
		return false
	}
	if m.Expired(now) {
		m.State = StateExpired
		return true
	}
	if m.State == StateLockedOut && !now.Before(m.LockedUntil) {
		// Lockout over: input is preserved, only the message is dropped.
		m.State = StateCollecting
		m.LockedUntil = time.Time{}
		m.Message = ""
		return true
	}
	return false
}

// ToggleMode switches between code and backup-code entry, clearing all
// entered input in both modes.
func (m *Machine) ToggleMode() bool {
	if m.State != StateCollecting {
		return false
	}
	if m.Mode == ModeTOTP {
		m.Mode = ModeBackup
	} else {
		m.Mode = ModeTOTP
	}
	m.Entry.Clear()
	m.Backup = ""
	return true
}

// SetBackup replaces the backup-code input while collecting in backup mode.
func (m *Machine) SetBackup(code string) bool {
	if m.State != StateCollecting || m.Mode != ModeBackup {
		return false
	}
	m.Backup = code
	return true
}

// InputAllowed reports whether digit-slot edits are currently accepted.
func (m *Machine) InputAllowed() bool {
	return m.State == StateCollecting && m.Mode == ModeTOTP
}

// CanSubmit reports whether the active sub-mode's input reached its minimum
// length and no lockout, expiry, or in-flight submission blocks it.
func (m *Machine) CanSubmit(now time.Time) bool {
	return m.BeginGate(now) == GateOK
}

// BeginGate classifies submission readiness without changing state.
func (m *Machine) BeginGate(now time.Time) SubmitGate {
	switch m.State {
	case StateSubmitting:
		return GateBusy
	case StateLockedOut:
		if m.Expired(now) {
			return GateExpired
		}
		return GateLocked
	case StateCollecting:
	default:
		return GateState
	}
	if m.Expired(now) {
		return GateExpired
	}
	if m.Mode == ModeTOTP && !m.Entry.Complete() {
		return GateIncomplete
	}
	if m.Mode == ModeBackup && len(m.Backup) < m.backupMin {
		return GateIncomplete
	}
	return GateOK
}

// BeginSubmit moves to submitting when the gate is open.
func (m *Machine) BeginSubmit(now time.Time) SubmitGate {
	gate := m.BeginGate(now)
	if gate == GateOK {
		m.State = StateSubmitting
		m.Message = ""
	}
	return gate
}

// Code returns the code to submit for the active sub-mode.
func (m *Machine) Code() string {
	if m.Mode == ModeBackup {
		return m.Backup
	}
	return m.Entry.Code()
}

// FinishSubmit settles an in-flight submission. Outcomes arriving after the
// machine left the submitting state (cancel, forced expiry) are ignored; the
// torn-down flow simply discards the late response.
func (m *Machine) FinishSubmit(now time.Time, out SubmitOutcome, fallbackLockout int) {
	if m.State != StateSubmitting {
		return
	}
	if m.Expired(now) && !out.Success {
		m.State = StateExpired
		return
	}
	if out.Success {
		m.Warning = out.Warning
		m.BackupCodesRemaining = out.BackupCodesRemaining
		if out.Warning != "" {
			// Zero remaining codes demands an explicit acknowledgement;
			// callers may auto-advance otherwise.
			m.AcknowledgeRequired = out.BackupCodesRemaining == 0
			m.State = StateWarnAck
			return
		}
		m.State = StateSuccess
		return
	}
	if secs, locked := LockoutSeconds(out.RetryAfterSeconds, out.Message, fallbackLockout); locked {
		m.LockedUntil = now.Add(time.Duration(secs) * time.Second)
		m.Message = out.Message
		m.State = StateLockedOut
		return
	}
	m.Message = out.Message
	m.State = StateCollecting
}

// Acknowledge releases a verification parked behind the warning state.
func (m *Machine) Acknowledge() bool {
	if m.State != StateWarnAck {
		return false
	}
	m.State = StateSuccess
	return true
}

// Cancel terminates the flow from any non-terminal state.
func (m *Machine) Cancel() bool {
	switch m.State {
	case StateSuccess, StateExpired, StateCanceled, StateNoChallenge:
		return false
	}
	m.State = StateCanceled
	return true
}
