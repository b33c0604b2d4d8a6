package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

type gateSink struct {
	release chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.release
}

func TestDispatcherDisabledReturnsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &captureSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 || d.Delivered() != 0 {
		t.Fatal("nil dispatcher must report zero counters")
	}
}

func TestDispatcherDeliversAndStamps(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	d.Emit(context.Background(), Event{EventType: "throttle_denied", IP: "1.2.3.4"})
	d.Emit(context.Background(), Event{EventType: "throttle_sweep", EventID: "fixed"})
	d.Close()

	events := sink.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventID == "" || events[0].Timestamp.IsZero() {
		t.Fatalf("expected event id and timestamp to be stamped, got %+v", events[0])
	}
	if events[1].EventID != "fixed" {
		t.Fatalf("expected caller event id to be kept, got %q", events[1].EventID)
	}
	if d.Delivered() != 2 {
		t.Fatalf("expected 2 delivered, got %d", d.Delivered())
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	sink := &gateSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// At most one event is held by the sink and one sits in the buffer.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "throttle_denied"})
	}
	close(sink.release)
	d.Close()

	if d.Dropped() < 8 {
		t.Fatalf("expected at least 8 dropped events, got %d", d.Dropped())
	}
}

func TestDispatcherEmitAfterCloseIsIgnored(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	d.Close()
	d.Close()
	d.Emit(context.Background(), Event{EventType: "late"})
	if len(sink.snapshot()) != 0 {
		t.Fatal("expected no delivery after close")
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONWriterSink(&buf)
	s.Emit(context.Background(), Event{EventType: "throttle_denied", IP: "1.2.3.4", Username: "alice"})
	s.Emit(context.Background(), Event{EventType: "throttle_sweep", Evicted: 3, Allowed: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var got Event
	if err := json.Unmarshal([]byte(lines[1]), &got); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if got.EventType != "throttle_sweep" || got.Evicted != 3 {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &captureSink{}, &captureSink{}
	MultiSink{a, nil, b}.Emit(context.Background(), Event{EventType: "throttle_denied"})
	if len(a.snapshot()) != 1 || len(b.snapshot()) != 1 {
		t.Fatal("expected both sinks to receive the event")
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestRedisStreamSinkAppends(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := NewRedisStreamSink(rdb, RedisStreamConfig{Stream: "test:audit"}, nil)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.Emit(context.Background(), Event{
		EventID:   "ev-1",
		Timestamp: ts,
		EventType: "throttle_denied",
		KeyKind:   "address_username",
		IP:        "1.2.3.4",
		Username:  "alice",
		Reason:    "rate_exceeded",
		Metadata:  map[string]string{"retry_after_ms": "2000"},
	})

	entries, err := rdb.XRange(context.Background(), "test:audit", "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stream entry, got %d", len(entries))
	}
	v := entries[0].Values
	if v["event_id"] != "ev-1" || v["username"] != "alice" || v["reason"] != "rate_exceeded" {
		t.Fatalf("unexpected stream values %v", v)
	}
	if v["timestamp"] != ts.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected timestamp %v", v["timestamp"])
	}
	if v["metadata"] != `{"retry_after_ms":"2000"}` {
		t.Fatalf("unexpected metadata %v", v["metadata"])
	}
	if s.Failed() != 0 {
		t.Fatalf("expected no failures, got %d", s.Failed())
	}
}

func TestRedisStreamSinkReportsFailures(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	var seen []error
	s := NewRedisStreamSink(rdb, RedisStreamConfig{WriteTimeout: 50 * time.Millisecond}, func(err error) {
		seen = append(seen, err)
	})

	mr.Close()
	s.Emit(context.Background(), Event{EventType: "throttle_denied"})

	if s.Failed() != 1 || len(seen) != 1 {
		t.Fatalf("expected one reported failure, got failed=%d seen=%d", s.Failed(), len(seen))
	}
}
