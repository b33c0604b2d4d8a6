package main

import (
	"strings"
	"testing"
	"time"

	goThrottle "github.com/MrEthical07/goThrottle"
)

func TestPercentile(t *testing.T) {
	samples := make([]time.Duration, 100)
	for i := range samples {
		samples[i] = time.Duration(i+1) * time.Millisecond
	}

	tests := map[int]time.Duration{
		0:   time.Millisecond,
		50:  50 * time.Millisecond,
		99:  99 * time.Millisecond,
		100: 100 * time.Millisecond,
	}
	for p, want := range tests {
		if got := percentile(samples, p); got != want {
			t.Fatalf("percentile(%d) = %v, want %v", p, got, want)
		}
	}
	if percentile(nil, 50) != 0 {
		t.Fatal("expected zero for empty samples")
	}
}

func TestComputeStatsSortsSamples(t *testing.T) {
	samples := []time.Duration{3 * time.Millisecond, time.Millisecond, 2 * time.Millisecond}
	s := computeStats(time.Second, samples, 1)

	if s.ops != 3 || s.denied != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.p50 != 2*time.Millisecond || s.p99 != 2*time.Millisecond {
		t.Fatalf("unexpected percentiles: p50=%v p99=%v", s.p50, s.p99)
	}
	if s.opsPerS != 3 {
		t.Fatalf("expected 3 ops/sec, got %v", s.opsPerS)
	}

	if empty := computeStats(time.Second, nil, 0); empty.ops != 0 || empty.total != time.Second {
		t.Fatalf("unexpected empty stats: %+v", empty)
	}
}

func TestRenderSummary(t *testing.T) {
	out := renderSummary(summary{
		strategy:      goThrottle.StrategyAddressUsername,
		failure:       phaseStats{ops: 10},
		precheck:      phaseStats{ops: 10, denied: 4},
		trackedBefore: 7,
		trackedAfter:  0,
		sweep:         goThrottle.SweepResult{Evicted: 7},
		auditEvents:   5,
	})

	for _, want := range []string{"address_username", "denied=4", "7 -> 0", "evicted=7", "stream=5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSubmissionForIsDistinct(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 70000; i++ {
		addr := submissionFor(i).ClientAddress
		if seen[addr] {
			t.Fatalf("duplicate address %s at %d", addr, i)
		}
		seen[addr] = true
	}
}
