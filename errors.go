package goThrottle

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineNotReady is returned by operations on a nil or closed engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidConfig wraps every structural configuration error.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrThrottled is returned by [Decision.Err] for a denied submission.
	ErrThrottled = errors.New("authentication throttled")
)

// Err returns nil for an allowed decision and an error wrapping
// [ErrThrottled] otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: key %s, retry after %s", ErrThrottled, d.Key, d.RetryAfter)
}
