// Package goThrottle throttles authentication submissions whose failures
// arrive faster than a configured rate.
//
// A submission is keyed on the client address, or on the address plus the
// attempted username when a username parameter is configured. The engine
// remembers only the time of each key's most recent failure and rejects a new
// submission when less than FailureRangeSeconds / FailureThreshold seconds
// have passed since it. A background cleaner evicts records older than the
// failure range.
//
// Typical wiring:
//
//	engine, err := goThrottle.New().
//		WithConfig(goThrottle.StrictConfig()).
//		WithLogger(logger).
//		Build()
//	if err != nil { ... }
//	defer engine.Close()
//
//	d := engine.PreCheck(ctx, sub)
//	if d.Denied() { reject(d.RetryAfter) }
//	if ok := authenticate(); !ok {
//		engine.OnAuthenticationFailure(ctx, sub)
//	}
//
// # Architecture boundaries
//
// goThrottle is the public surface: [Engine], [Builder], [Config] and value
// types. Key derivation, the failure tracker, the rate decision, the cleaner
// and audit dispatch live under internal/.
//
// # What this package must NOT do
//
//   - Authenticate anyone; it only observes outcomes reported by the caller.
//   - Persist state; a restart forgets every failure.
//   - Return an error from the hot path. Internal faults fail open.
package goThrottle
