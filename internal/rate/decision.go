package rate

import "time"

// Policy is a failure threshold over a range of seconds.
type Policy struct {
	Threshold    int
	RangeSeconds int
}

// Active reports whether the policy can throttle at all.
func (p Policy) Active() bool {
	return p.Threshold > 0 && p.RangeSeconds > 0
}

// MinInterval is the smallest gap between failures the policy tolerates.
// Inactive policies return zero.
func (p Policy) MinInterval() time.Duration {
	return MinInterval(p.Threshold, p.RangeSeconds)
}

// ShouldThrottle evaluates the policy for a key whose last failure is last.
func (p Policy) ShouldThrottle(last time.Time, ok bool, now time.Time) bool {
	return ShouldThrottle(last, ok, now, p.Threshold, p.RangeSeconds)
}

// MinInterval returns rangeSeconds/threshold as a duration, or zero when
// either argument is not positive.
func MinInterval(threshold, rangeSeconds int) time.Duration {
	if threshold <= 0 || rangeSeconds <= 0 {
		return 0
	}
	return time.Duration(rangeSeconds) * time.Second / time.Duration(threshold)
}

// ShouldThrottle reports whether a submission at now must be denied given the
// key's last recorded failure. ok is false when no failure is recorded.
func ShouldThrottle(last time.Time, ok bool, now time.Time, threshold, rangeSeconds int) bool {
	if !ok {
		return false
	}
	minInterval := MinInterval(threshold, rangeSeconds)
	if minInterval <= 0 {
		return false
	}
	return now.Sub(last) < minInterval
}

// RetryAfter returns how long a throttled key must wait before the next
// submission is allowed. Allowed keys return zero.
func RetryAfter(last time.Time, ok bool, now time.Time, threshold, rangeSeconds int) time.Duration {
	if !ShouldThrottle(last, ok, now, threshold, rangeSeconds) {
		return 0
	}
	return MinInterval(threshold, rangeSeconds) - now.Sub(last)
}
