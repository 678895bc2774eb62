// Package prometheus exposes huiauth counters through client_golang.
//
// [NewCollector] wraps anything with a metrics snapshot (usually
// [huiauth.Engine]) as a [prom.Collector]. Register it on your own
// registry, or call [Handler] for a ready /metrics endpoint. Counter names
// are huiauth_*_total; the single histogram is
// huiauth_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
