package goThrottle

import (
	"context"
	"strconv"

	"github.com/MrEthical07/goThrottle/internal/keys"
)

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent, metadataBuilder func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if id := requestIDFromContext(ctx); id != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["request_id"] = id
	}

	event.Timestamp = e.now().UTC()
	event.Metadata = metadata
	e.audit.Emit(ctx, event)
}

func (e *Engine) emitDenied(ctx context.Context, key keys.Key, d Decision) {
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditEventThrottleDenied,
		KeyKind:   d.KeyKind,
		IP:        key.Address,
		Username:  key.Username,
		Reason:    string(d.Reason),
		Allowed:   false,
	}, func() map[string]string {
		return map[string]string{
			"retry_after_ms": strconv.FormatInt(d.RetryAfter.Milliseconds(), 10),
		}
	})
}

func (e *Engine) emitFailureDropped(ctx context.Context, key keys.Key, err error) {
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditEventFailureDropped,
		KeyKind:   key.Kind.String(),
		IP:        key.Address,
		Username:  key.Username,
		Allowed:   true,
		Error:     err.Error(),
	}, nil)
}

func (e *Engine) emitSweep(ctx context.Context, res SweepResult) {
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditEventSweep,
		Allowed:   true,
		Evicted:   res.Evicted,
	}, func() map[string]string {
		return map[string]string{
			"cutoff":       res.Cutoff.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			"tracked_keys": strconv.Itoa(e.tracker.KeyCount()),
		}
	})
}

func (e *Engine) emitConfigReloaded(ctx context.Context, prev, next ThrottleConfig) {
	eventType := AuditEventConfigReloaded
	if prev.Active() && !next.Active() {
		eventType = AuditEventThrottleOffline
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: eventType,
		Allowed:   true,
		Reason:    string(strategyFor(next)),
	}, func() map[string]string {
		return map[string]string{
			"previous_failure_threshold":     strconv.Itoa(prev.FailureThreshold),
			"previous_failure_range_seconds": strconv.Itoa(prev.FailureRangeSeconds),
			"failure_threshold":              strconv.Itoa(next.FailureThreshold),
			"failure_range_seconds":          strconv.Itoa(next.FailureRangeSeconds),
			"username_parameter":             next.UsernameParameter,
		}
	})
}
