// Package internal holds the building blocks of goThrottle that are not part
// of its public API.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - cleaner: periodic eviction of expired failure records
//   - keys: throttle key derivation
//   - rate: the stateless throttle decision
//   - stores: the sharded in-memory failure tracker
//
// # What this package must NOT do
//
//   - Export types that appear in the public goThrottle API.
//   - Be imported by any package outside the goThrottle module.
package internal
