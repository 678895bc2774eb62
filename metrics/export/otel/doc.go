// Package otel publishes huiauth counters through an OpenTelemetry meter.
//
// [NewExporter] registers an Int64ObservableCounter per engine counter and
// an Int64ObservableGauge per histogram bucket.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
