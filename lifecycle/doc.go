// Package lifecycle bridges host-environment page lifecycle signals into the
// session layer. The embedding shell reports three signals: the page became
// hidden, the page became visible, and the page was restored from a frozen
// snapshot (distinguished from a fresh load).
//
// Delivery is synchronous in the notifier's goroutine: a hidden signal must
// finish flushing in-memory progress to durable storage before the host
// freezes the process, so asynchronous fan-out would defeat the purpose.
package lifecycle
