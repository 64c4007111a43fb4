// Package flows contains the orchestration-free logic of the MFA challenge:
// digit-slot editing, challenge resolution, lockout derivation, and the
// verification state machine.
//
// # Design
//
// Everything here is pure: no I/O, no timers, no clocks. Callers pass the
// current wall-clock time into every time-sensitive operation, which is what
// makes the absolute-deadline invariant testable and what lets a resumed
// process re-derive both countdowns from persisted timestamps instead of
// in-memory counters that reset on teardown.
//
// # What this package must NOT do
//
//   - Call time.Now, start goroutines, or arm timers.
//   - Touch the network or any store.
//   - Import the root package or internal/stores.
package flows
