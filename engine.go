package goThrottle

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	timerate "golang.org/x/time/rate"

	"github.com/MrEthical07/goThrottle/internal/audit"
	"github.com/MrEthical07/goThrottle/internal/cleaner"
	"github.com/MrEthical07/goThrottle/internal/keys"
	"github.com/MrEthical07/goThrottle/internal/rate"
	"github.com/MrEthical07/goThrottle/internal/stores"
)

// SweepResult describes one cleaner pass.
type SweepResult = cleaner.Result

// Engine intercepts authentication submissions and throttles keys whose
// failures arrive faster than the configured rate. All methods are safe for
// concurrent use.
type Engine struct {
	config Config

	throttle atomic.Pointer[throttleState]
	reloadMu sync.Mutex

	tracker *stores.FailureTracker
	cleaner *cleaner.Cleaner
	audit   *audit.Dispatcher
	metrics *Metrics

	now    func() time.Time
	logger *slog.Logger

	denyLog *timerate.Sometimes
	dropLog *timerate.Sometimes

	closed    atomic.Bool
	closeOnce sync.Once
}

type throttleState struct {
	cfg             ThrottleConfig
	policy          rate.Policy
	usernameEnabled bool
}

// PreCheck decides whether a submission may proceed. It reads the tracker
// but never writes to it.
func (e *Engine) PreCheck(ctx context.Context, sub SubmissionContext) Decision {
	if e == nil {
		return Decision{Allowed: true, Reason: ReasonThrottlingDisabled}
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricPreCheckLatency, time.Since(start)) }()
	}

	state := e.throttle.Load()
	key := keys.Derive(sub.ClientAddress, sub.Username, state.usernameEnabled)
	d := Decision{
		Allowed: true,
		Key:     key.String(),
		KeyKind: key.Kind.String(),
	}

	if !state.policy.Active() {
		d.Reason = ReasonThrottlingDisabled
		e.metrics.Inc(MetricPreCheckBypassed)
		return d
	}

	last, ok := e.tracker.LastFailure(key)
	if !ok {
		d.Reason = ReasonNoPriorFailure
		e.metrics.Inc(MetricPreCheckAllowed)
		return d
	}

	now := e.now()
	if !state.policy.ShouldThrottle(last, ok, now) {
		d.Reason = ReasonWithinRate
		e.metrics.Inc(MetricPreCheckAllowed)
		return d
	}

	d.Allowed = false
	d.Reason = ReasonRateExceeded
	d.RetryAfter = rate.RetryAfter(last, ok, now, state.policy.Threshold, state.policy.RangeSeconds)
	e.metrics.Inc(MetricPreCheckDenied)

	e.denyLog.Do(func() {
		e.logger.Info("authentication submission throttled",
			"key_kind", d.KeyKind,
			"ip", key.Address,
			"username", key.Username,
			"retry_after", d.RetryAfter,
		)
	})
	e.emitDenied(ctx, key, d)

	return d
}

// OnAuthenticationFailure records a failed submission at the current time.
// While throttling is disabled it is a no-op. A tracker at capacity drops the
// failure and the engine keeps failing open.
func (e *Engine) OnAuthenticationFailure(ctx context.Context, sub SubmissionContext) {
	if e == nil {
		return
	}
	state := e.throttle.Load()
	key := keys.Derive(sub.ClientAddress, sub.Username, state.usernameEnabled)

	if !state.policy.Active() {
		e.metrics.Inc(MetricFailureIgnored)
		e.logger.Debug("throttling disabled, failure not recorded", "key_kind", key.Kind.String())
		return
	}

	if err := e.tracker.RecordFailure(key, e.now()); err != nil {
		e.metrics.Inc(MetricFailureDropped)
		e.dropLog.Do(func() {
			e.logger.Warn("failure not recorded", "error", err, "tracked_keys", e.tracker.KeyCount())
		})
		e.emitFailureDropped(ctx, key, err)
		return
	}
	e.metrics.Inc(MetricFailureRecorded)
}

// OnAuthenticationSuccess observes a successful submission. It does not
// clear the key's failure record.
func (e *Engine) OnAuthenticationSuccess(_ context.Context, _ SubmissionContext) {
	if e == nil {
		return
	}
	e.metrics.Inc(MetricSuccessObserved)
}

// Reload swaps the throttling policy. Readers observe either the old or the
// new policy in full, never a mix.
func (e *Engine) Reload(ctx context.Context, cfg ThrottleConfig) error {
	if e == nil || e.closed.Load() {
		return ErrEngineNotReady
	}
	prev, changed := e.applyThrottle(cfg, false)
	if changed {
		e.emitConfigReloaded(ctx, prev, e.ThrottleConfig())
	}
	return nil
}

// ThrottleConfig returns the policy currently in effect.
func (e *Engine) ThrottleConfig() ThrottleConfig {
	if e == nil {
		return ThrottleConfig{}
	}
	return e.throttle.Load().cfg
}

// Strategy returns the key derivation in effect.
func (e *Engine) Strategy() Strategy {
	return strategyFor(e.ThrottleConfig())
}

// Sweep runs one cleaner pass immediately.
func (e *Engine) Sweep(ctx context.Context) (SweepResult, error) {
	if e == nil || e.closed.Load() {
		return SweepResult{}, ErrEngineNotReady
	}
	return e.cleaner.RunOnce(ctx), nil
}

// TrackedKeys lists the currently tracked keys in sorted order.
func (e *Engine) TrackedKeys() []string {
	if e == nil {
		return nil
	}
	out := lo.Map(e.tracker.Keys(), func(k keys.Key, _ int) string { return k.String() })
	slices.Sort(out)
	return out
}

// TrackedKeyCount returns the number of tracked keys.
func (e *Engine) TrackedKeyCount() int {
	if e == nil {
		return 0
	}
	return e.tracker.KeyCount()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return NewMetrics(MetricsConfig{}).Snapshot()
	}
	return e.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped by the dispatcher.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close stops the cleaner and flushes pending audit events. It is
// idempotent.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		e.cleaner.Stop()
		e.audit.Close()
	})
}

func (e *Engine) applyThrottle(cfg ThrottleConfig, initial bool) (ThrottleConfig, bool) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	cfg.UsernameParameter = strings.TrimSpace(cfg.UsernameParameter)
	next := &throttleState{
		cfg:             cfg,
		policy:          cfg.policy(),
		usernameEnabled: cfg.UsernameEnabled(),
	}

	prev := e.throttle.Swap(next)
	var prevCfg ThrottleConfig
	if prev != nil {
		prevCfg = prev.cfg
	}
	if prev != nil && prevCfg == cfg {
		return prevCfg, false
	}

	if !initial {
		e.metrics.Inc(MetricConfigReloads)
	}
	if cfg.Active() {
		e.logger.Info("throttling policy applied",
			"strategy", strategyFor(cfg),
			"failure_threshold", cfg.FailureThreshold,
			"failure_range_seconds", cfg.FailureRangeSeconds,
			"min_interval", cfg.MinInterval(),
		)
	} else {
		e.metrics.Inc(MetricThrottleDisabled)
		e.logger.Warn("throttling is turned off, no failures are recorded and no cleanup takes place",
			"failure_threshold", cfg.FailureThreshold,
			"failure_range_seconds", cfg.FailureRangeSeconds,
		)
	}

	e.cleaner.Kick()
	return prevCfg, true
}

func (e *Engine) currentRange() time.Duration {
	state := e.throttle.Load()
	if state == nil || !state.policy.Active() {
		return 0
	}
	return state.cfg.Range()
}

func (e *Engine) observeSweep(ctx context.Context, res SweepResult) {
	if res.Skipped {
		e.metrics.Inc(MetricSweepSkipped)
		e.logger.Debug("sweep skipped, throttling disabled")
		return
	}

	e.metrics.Inc(MetricSweepRuns)
	e.metrics.Add(MetricEntriesEvicted, uint64(res.Evicted))
	e.metrics.Observe(MetricSweepLatency, res.Duration)
	e.logger.Debug("sweep completed",
		"evicted", res.Evicted,
		"cutoff", res.Cutoff,
		"tracked_keys", e.tracker.KeyCount(),
		"duration", res.Duration,
	)
	e.emitSweep(ctx, res)
}
