package goThrottle

import "time"

// Report summarizes the engine's effective throttling posture.
type Report struct {
	Strategy            Strategy
	FailureThreshold    int
	FailureRangeSeconds int
	UsernameParameter   string
	MinInterval         time.Duration
	CleanerRunning      bool
	CleanerInterval     time.Duration
	TrackedKeys         int
	TrackerCapacity     int
	AuditEnabled        bool
	AuditDropped        uint64
	MetricsEnabled      bool
	LintCodes           []string
}

func (e *Engine) Report() Report {
	if e == nil {
		return Report{}
	}

	cfg := e.config
	cfg.Throttle = e.ThrottleConfig()

	return Report{
		Strategy:            strategyFor(cfg.Throttle),
		FailureThreshold:    cfg.Throttle.FailureThreshold,
		FailureRangeSeconds: cfg.Throttle.FailureRangeSeconds,
		UsernameParameter:   cfg.Throttle.UsernameParameter,
		MinInterval:         cfg.Throttle.MinInterval(),
		CleanerRunning:      e.cleaner.Running(),
		CleanerInterval:     e.cleaner.NextInterval(),
		TrackedKeys:         e.tracker.KeyCount(),
		TrackerCapacity:     e.tracker.Capacity(),
		AuditEnabled:        e.audit != nil,
		AuditDropped:        e.audit.Dropped(),
		MetricsEnabled:      e.metrics.Enabled(),
		LintCodes:           cfg.Lint().Codes(),
	}
}
