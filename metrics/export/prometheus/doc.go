// Package prometheus provides Prometheus collectors for agroSession metrics.
//
// [NewPrometheusExporter] accepts an [agroSession.Coordinator] and exposes an
// [http.Handler] that renders all agroSession counters in Prometheus text
// exposition format. Counter names are prefixed agrosession_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate coordinator state.
package prometheus
