//go:build integration
// +build integration

package test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	goThrottle "github.com/MrEthical07/goThrottle"
)

var integrationEpoch = time.UnixMilli(1_700_000_000_000)

// newIntegrationEngine builds an engine that audits into stream on rdb and
// reads time from the returned pointer.
func newIntegrationEngine(t *testing.T, rdb redis.UniversalClient, stream string, throttle goThrottle.ThrottleConfig) (*goThrottle.Engine, *time.Time) {
	t.Helper()

	now := integrationEpoch
	cfg := goThrottle.DefaultConfig()
	cfg.Throttle = throttle
	cfg.Cleaner.Enabled = false
	cfg.Audit.DropIfFull = false

	engine, err := goThrottle.New().
		WithConfig(cfg).
		WithClock(func() time.Time { return now }).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithAuditSink(goThrottle.NewRedisStreamSink(rdb, goThrottle.RedisStreamConfig{Stream: stream}, func(err error) {
			t.Errorf("audit write failed: %v", err)
		})).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	return engine, &now
}
