// Package otel provides OpenTelemetry metric exporter bindings for
// agroSession counters.
//
// [NewOTelExporter] registers an Int64ObservableCounter per agroSession
// metric. A single callback reads [agroSession.Coordinator.MetricsSnapshot]
// on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate coordinator state.
package otel
