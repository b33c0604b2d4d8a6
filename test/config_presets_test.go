package test

import (
	"testing"
	"time"

	goThrottle "github.com/MrEthical07/goThrottle"
)

func TestDefaultConfigPresetValidates(t *testing.T) {
	cfg := goThrottle.DefaultConfig()

	if cfg.Throttle.FailureThreshold != 100 || cfg.Throttle.FailureRangeSeconds != 60 {
		t.Fatalf("expected 100 failures per 60s, got %+v", cfg.Throttle)
	}
	if cfg.Throttle.UsernameEnabled() {
		t.Fatal("expected address-only keys in the default preset")
	}
	if cfg.Throttle.MinInterval() != 600*time.Millisecond {
		t.Fatalf("expected 600ms min interval, got %v", cfg.Throttle.MinInterval())
	}
	if !cfg.Cleaner.Enabled {
		t.Fatal("expected cleaner enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected preset to validate, got %v", err)
	}
}

func TestStrictConfigPresetValidates(t *testing.T) {
	cfg := goThrottle.StrictConfig()

	if cfg.Throttle.FailureThreshold != 3 || cfg.Throttle.FailureRangeSeconds != 60 {
		t.Fatalf("expected 3 failures per 60s, got %+v", cfg.Throttle)
	}
	if !cfg.Throttle.UsernameEnabled() {
		t.Fatal("expected username keys in the strict preset")
	}
	if cfg.Tracker.MaxKeys <= 0 {
		t.Fatal("expected a bounded tracker")
	}
	if !cfg.Audit.Enabled || !cfg.Metrics.Enabled {
		t.Fatal("expected audit and metrics enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected strict preset to validate, got %v", err)
	}
	if codes := cfg.Lint().Codes(); len(codes) != 0 {
		t.Fatalf("expected strict preset to lint clean, got %v", codes)
	}
}
