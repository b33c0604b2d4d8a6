// Package prometheus renders goThrottle metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps a [goThrottle.Engine] and exposes an
// [http.Handler]. Counters are named gothrottle_*_total, the latency
// histograms gothrottle_*_latency_seconds, and gothrottle_tracked_keys is a
// gauge of the tracker size.
//
// # What this package must NOT do
//
//   - Register metrics in a global registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
