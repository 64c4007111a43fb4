// Package stores implements the durable key-value records of the session layer:
// the credential pair, the MFA verification challenge, and the MFA setup session.
//
// # Design
//
// Every record is a version-prefixed binary encoding written as a single value,
// so the pair of fields it holds (access+refresh credential, token+digits) is
// replaced atomically — a reader can never observe a half-updated record.
// TTL-bound records embed their absolute creation timestamp and are re-checked
// against wall clock on every read, independent of the backend's own TTL
// machinery. A frozen process whose timers stopped ticking therefore cannot
// resurrect an expired record.
//
// # Architecture boundaries
//
// This package owns record layout and backend access (redis, bbolt). Flow
// orchestration and timers live above it and are never imported here.
//
// # What this package must NOT do
//
//   - Trust backend eviction alone for expiry decisions.
//   - Expose backend clients or encoding details to callers.
//   - Perform partial-field updates on any record.
package stores
