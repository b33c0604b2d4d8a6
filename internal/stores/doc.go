// Package stores owns the in-memory failure tracker: the only mutable state
// of the throttling engine.
//
// # Design
//
// [FailureTracker] maps a throttling key to the unix-millisecond timestamp of
// its most recent failure. Keys are spread over a power-of-two number of
// shards selected by xxhash, each guarded by its own RWMutex, so request
// goroutines working on different keys rarely contend and reads never wait
// for writers of other shards.
//
// Eviction snapshots one shard at a time under the read lock and re-checks
// every candidate under the write lock before deleting it. A failure recorded
// while a sweep is running is therefore never lost, and no lock is held for
// the duration of a whole sweep.
//
// # Architecture boundaries
//
// This package owns storage and concurrency control. It does NOT decide
// whether a submission is throttled (internal/rate) or when to sweep
// (internal/cleaner).
//
// # What this package must NOT do
//
//   - Import goThrottle or any sibling internal package except internal/keys.
//   - Let a stored timestamp move backwards.
//   - Perform I/O.
package stores
