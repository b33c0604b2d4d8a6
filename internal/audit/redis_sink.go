package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultStreamKey    = "goThrottle:audit"
	defaultStreamMaxLen = 100_000
	defaultWriteTimeout = 500 * time.Millisecond
)

// RedisStreamConfig configures [RedisStreamSink].
type RedisStreamConfig struct {
	Stream       string
	MaxLen       int64 // approximate trim length; 0 = default, <0 = no trim
	WriteTimeout time.Duration
}

// RedisStreamSink appends audit events to a Redis stream with XADD.
type RedisStreamSink struct {
	redis   redis.UniversalClient
	cfg     RedisStreamConfig
	failed  atomic.Uint64
	onError func(error)
}

// NewRedisStreamSink returns a sink writing to the configured stream.
// onError, if non-nil, observes failed writes.
func NewRedisStreamSink(client redis.UniversalClient, cfg RedisStreamConfig, onError func(error)) *RedisStreamSink {
	if cfg.Stream == "" {
		cfg.Stream = defaultStreamKey
	}
	if cfg.MaxLen == 0 {
		cfg.MaxLen = defaultStreamMaxLen
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &RedisStreamSink{
		redis:   client,
		cfg:     cfg,
		onError: onError,
	}
}

func (s *RedisStreamSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.redis == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: s.cfg.Stream,
		Values: streamValues(event),
	}
	if s.cfg.MaxLen > 0 {
		args.MaxLen = s.cfg.MaxLen
		args.Approx = true
	}

	if err := s.redis.XAdd(ctx, args).Err(); err != nil {
		s.failed.Add(1)
		if s.onError != nil {
			s.onError(err)
		}
	}
}

// Failed returns the number of events that could not be written.
func (s *RedisStreamSink) Failed() uint64 {
	if s == nil {
		return 0
	}
	return s.failed.Load()
}

func streamValues(event Event) map[string]interface{} {
	values := map[string]interface{}{
		"event_id":   event.EventID,
		"timestamp":  event.Timestamp.UTC().Format(time.RFC3339Nano),
		"event_type": event.EventType,
		"allowed":    strconv.FormatBool(event.Allowed),
	}
	if event.KeyKind != "" {
		values["key_kind"] = event.KeyKind
	}
	if event.IP != "" {
		values["ip"] = event.IP
	}
	if event.Username != "" {
		values["username"] = event.Username
	}
	if event.Reason != "" {
		values["reason"] = event.Reason
	}
	if event.Evicted > 0 {
		values["evicted"] = strconv.Itoa(event.Evicted)
	}
	if event.Error != "" {
		values["error"] = event.Error
	}
	if len(event.Metadata) > 0 {
		if raw, err := json.Marshal(event.Metadata); err == nil {
			values["metadata"] = string(raw)
		}
	}
	return values
}
