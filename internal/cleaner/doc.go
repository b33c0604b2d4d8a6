// Package cleaner runs the periodic eviction of stale failure records.
//
// A [Cleaner] owns one goroutine. Each pass reads the current failure window,
// computes cutoff = now - window and asks its [Sweeper] to evict everything
// older. The period is recomputed before every pass so a reloaded window
// takes effect without a restart. A non-positive window turns a pass into a
// skipped no-op.
//
// # What this package must NOT do
//
//   - Decide whether a submission is throttled.
//   - Hold any tracker lock itself.
package cleaner
