// Package otel binds goThrottle metrics to OpenTelemetry instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter,
// an Int64ObservableGauge per histogram bucket, and a gauge for the number of
// tracked keys. One callback reads [goThrottle.Engine.MetricsSnapshot] on each
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
