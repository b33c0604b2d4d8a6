package goThrottle

import "github.com/samber/lo"

// LintWarning is a non-fatal configuration finding.
type LintWarning struct {
	Code    string
	Message string
}

// LintResult is the ordered list of warnings returned by [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	return lo.Map(r, func(w LintWarning, _ int) string { return w.Code })
}

// Lint reports settings that are valid but likely unintended. It never
// fails; see [Config.Validate] for structural errors.
func (c *Config) Lint() LintResult {
	if c == nil {
		return nil
	}
	var out LintResult

	if !c.Throttle.Active() {
		out = append(out, LintWarning{
			Code:    "throttling_disabled",
			Message: "FailureThreshold or FailureRangeSeconds is not positive; submissions are never throttled",
		})
	}

	if !c.Cleaner.Enabled && c.Throttle.Active() {
		out = append(out, LintWarning{
			Code:    "cleaner_disabled",
			Message: "cleaner is disabled; tracked keys are only evicted by explicit Sweep calls",
		})
	}

	if c.Cleaner.Enabled && c.Cleaner.Interval > 0 && c.Throttle.Active() && c.Cleaner.Interval > c.Throttle.Range() {
		out = append(out, LintWarning{
			Code:    "cleaner_interval_long",
			Message: "cleaner Interval exceeds the failure range; expired entries linger until the next pass",
		})
	}

	if c.Tracker.MaxKeys == 0 {
		out = append(out, LintWarning{
			Code:    "tracker_unbounded",
			Message: "Tracker MaxKeys is 0; memory grows with the number of distinct failing keys within one range",
		})
	}

	if !c.Audit.Enabled {
		out = append(out, LintWarning{
			Code:    "audit_disabled",
			Message: "audit is disabled; throttle denials are only visible in logs and metrics",
		})
	}

	return out
}
