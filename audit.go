package goThrottle

import (
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goThrottle/internal/audit"
)

// AuditEvent is one throttle audit record.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's dispatcher goroutine.
type AuditSink = audit.Sink

type (
	NoOpSink        = audit.NoOpSink
	ChannelSink     = audit.ChannelSink
	JSONWriterSink  = audit.JSONWriterSink
	MultiSink       = audit.MultiSink
	RedisStreamSink = audit.RedisStreamSink

	// RedisStreamConfig configures [RedisStreamSink].
	RedisStreamConfig = audit.RedisStreamConfig
)

const (
	AuditEventThrottleDenied  = "throttle_denied"
	AuditEventFailureDropped  = "throttle_failure_dropped"
	AuditEventSweep           = "throttle_sweep"
	AuditEventConfigReloaded  = "throttle_config_reloaded"
	AuditEventThrottleOffline = "throttle_disabled"
)

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewRedisStreamSink writes audit events to a Redis stream with XADD.
// onError, if non-nil, observes failed writes.
func NewRedisStreamSink(client redis.UniversalClient, cfg RedisStreamConfig, onError func(error)) *RedisStreamSink {
	return audit.NewRedisStreamSink(client, cfg, onError)
}
