// Package rate implements the throttle decision: a single-sample rate
// estimator that compares the time since a key's most recent failure with the
// minimum inter-arrival interval the policy tolerates.
//
// # Decision semantics
//
// A policy of threshold failures per rangeSeconds tolerates on average one
// failure every rangeSeconds/threshold seconds. A submission is throttled
// when the previous failure for its key is closer than that interval. Exactly
// reaching the interval is allowed.
//
// This approximates "no more than threshold failures per range" using only
// the last failure's timestamp: O(1) memory per key and no counters to reset.
//
// # What this package must NOT do
//
//   - Hold state of any kind.
//   - Fail closed: a non-positive threshold or range never throttles.
package rate
