// Package middleware adapts a goThrottle.Engine to net/http login handlers.
//
// [Guard] wraps the handler that processes authentication submissions:
//
//   - non-POST requests pass straight through;
//   - a POST is pre-checked and rejected with 423 Locked and a Retry-After
//     header when its key failed too recently;
//   - otherwise the handler runs, its response status is captured with
//     httpsnoop, and a failing status is reported to the engine.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// authenticate anyone; the wrapped handler does, and signals the outcome
// through its status code.
//
// # What this package must NOT do
//
//   - Touch the failure tracker directly.
//   - Buffer or rewrite the wrapped handler's response body.
package middleware
