// Package audit implements async delivery of throttle events.
//
// # Components
//
//   - [Event]: structured record of a denial, sweep, config reload or dropped failure.
//   - [Sink]: consumer interface with channel, JSON writer, Redis stream and no-op implementations.
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the Engine does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on throttling decisions.
//   - Import goThrottle or any sibling internal package.
//   - Perform network I/O beyond what a Sink does.
package audit
