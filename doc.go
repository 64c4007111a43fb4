// Package agroSession provides the authenticated session layer of the
// HarvestERP client: a concurrency-safe request pipeline with transparent
// single-flight credential renewal, and the MFA challenge state machine with
// suspend/resume-safe persisted progress.
//
// The package is designed for concurrent callers: Coordinator methods are safe
// to call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// agroSession is the public surface. It exposes [Coordinator], [Builder],
// [Config], [Verification], and value types (Credentials, LoginResult,
// VerifyResult, etc.). All internal coordination — challenge flows, record
// storage, envelope translation — lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose store backends, record encodings, or flow internals in its
//     public API.
//   - Render, route, or otherwise own UI concerns; navigation happens through
//     a single injected callback and only on fatal session loss.
//   - Issue more than one renewal call for any number of concurrently failing
//     requests.
//
// # Renewal contract
//
// Do is the hot path. A 401 on a non-retried request triggers at most one
// renewal; every request that observes the renewal in progress suspends on a
// continuation and resumes with the renewal's outcome. The credential pair is
// rotated atomically and no continuation is ever abandoned.
package agroSession
