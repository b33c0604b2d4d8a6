package goThrottle

import "time"

// SubmissionContext carries the facts of one authentication submission.
type SubmissionContext struct {
	ClientAddress string
	Username      string
}

// DecisionReason explains a [Decision].
type DecisionReason string

const (
	// ReasonNoPriorFailure allows a key with no recorded failure.
	ReasonNoPriorFailure DecisionReason = "no_prior_failure"
	// ReasonWithinRate allows a key whose last failure is old enough.
	ReasonWithinRate DecisionReason = "within_rate"
	// ReasonRateExceeded denies a key that failed too recently.
	ReasonRateExceeded DecisionReason = "rate_exceeded"
	// ReasonThrottlingDisabled allows everything while the policy is inactive.
	ReasonThrottlingDisabled DecisionReason = "throttling_disabled"
)

// Decision is the outcome of [Engine.PreCheck].
type Decision struct {
	Allowed bool
	Reason  DecisionReason

	// Key renders the throttling key ("ip" or "ip;username").
	Key     string
	KeyKind string

	// RetryAfter is the remaining wait for a denied submission.
	RetryAfter time.Duration
}

// Denied reports whether the submission must be rejected.
func (d Decision) Denied() bool {
	return !d.Allowed
}

// Strategy names the key derivation in effect.
type Strategy string

const (
	StrategyAddress         Strategy = "address"
	StrategyAddressUsername Strategy = "address_username"
	StrategyNeverThrottle   Strategy = "never_throttle"
)

func strategyFor(c ThrottleConfig) Strategy {
	switch {
	case !c.Active():
		return StrategyNeverThrottle
	case c.UsernameEnabled():
		return StrategyAddressUsername
	default:
		return StrategyAddress
	}
}
