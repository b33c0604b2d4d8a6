package goThrottle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goThrottle/internal/rate"
)

// Config is the aggregate engine configuration. Only Throttle may change
// after Build, through [Engine.Reload].
type Config struct {
	Throttle ThrottleConfig
	Tracker  TrackerConfig
	Cleaner  CleanerConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig is the hot-reloadable throttling policy.
//
// Throttling is active only when both FailureThreshold and
// FailureRangeSeconds are positive; any other combination turns the engine
// into a pass-through that never records failures.
type ThrottleConfig struct {
	FailureThreshold    int
	FailureRangeSeconds int

	// UsernameParameter names the request parameter carrying the attempted
	// username. A blank name keys failures on the client address alone.
	UsernameParameter string
}

// Active reports whether the policy throttles at all.
func (c ThrottleConfig) Active() bool {
	return c.policy().Active()
}

// UsernameEnabled reports whether keys include the attempted username.
func (c ThrottleConfig) UsernameEnabled() bool {
	return strings.TrimSpace(c.UsernameParameter) != ""
}

// MinInterval is the shortest allowed gap after a failure, zero when inactive.
func (c ThrottleConfig) MinInterval() time.Duration {
	return c.policy().MinInterval()
}

// Range is the failure range as a duration.
func (c ThrottleConfig) Range() time.Duration {
	if c.FailureRangeSeconds <= 0 {
		return 0
	}
	return time.Duration(c.FailureRangeSeconds) * time.Second
}

func (c ThrottleConfig) policy() rate.Policy {
	return rate.Policy{Threshold: c.FailureThreshold, RangeSeconds: c.FailureRangeSeconds}
}

/*
====================================
TRACKER / CLEANER CONFIG
====================================
*/

// TrackerConfig sizes the in-memory failure tracker.
type TrackerConfig struct {
	Shards  int // power of two; 0 selects the default
	MaxKeys int // 0 = unbounded
}

// CleanerConfig controls the background sweep.
type CleanerConfig struct {
	Enabled bool
	// Interval fixes the sweep period. Zero follows the current failure range.
	Interval    time.Duration
	MinInterval time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls async audit dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Throttle: ThrottleConfig{
			FailureThreshold:    100,
			FailureRangeSeconds: 60,
		},
		Tracker: TrackerConfig{
			Shards:  32,
			MaxKeys: 0,
		},
		Cleaner: CleanerConfig{
			Enabled:     true,
			Interval:    0,
			MinInterval: time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the baseline configuration: 100 failures per 60
// seconds keyed on the client address, with the cleaner enabled.
func DefaultConfig() Config {
	return defaultConfig()
}

// StrictConfig returns a tight login policy: 3 failures per 60 seconds keyed
// on address plus the "username" parameter, with a bounded tracker.
func StrictConfig() Config {
	cfg := defaultConfig()
	cfg.Throttle = ThrottleConfig{
		FailureThreshold:    3,
		FailureRangeSeconds: 60,
		UsernameParameter:   "username",
	}
	cfg.Tracker.MaxKeys = 1_000_000
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks structural settings. A non-positive threshold or range is
// not an error: it selects never-throttle mode.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}

	var errs []error

	if c.Tracker.Shards < 0 {
		errs = append(errs, errors.New("Tracker Shards must be >= 0"))
	} else if c.Tracker.Shards > 0 && c.Tracker.Shards&(c.Tracker.Shards-1) != 0 {
		errs = append(errs, errors.New("Tracker Shards must be a power of two"))
	}
	if c.Tracker.MaxKeys < 0 {
		errs = append(errs, errors.New("Tracker MaxKeys must be >= 0"))
	}

	if c.Cleaner.Interval < 0 {
		errs = append(errs, errors.New("Cleaner Interval must be >= 0"))
	}
	if c.Cleaner.MinInterval < 0 {
		errs = append(errs, errors.New("Cleaner MinInterval must be >= 0"))
	}
	if c.Cleaner.Interval > 0 && c.Cleaner.MinInterval > 0 && c.Cleaner.Interval < c.Cleaner.MinInterval {
		errs = append(errs, errors.New("Cleaner Interval must be >= MinInterval"))
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		errs = append(errs, errors.New("Audit BufferSize must be > 0 when audit is enabled"))
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		errs = append(errs, errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
