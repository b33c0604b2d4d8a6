package goThrottle

import (
	"log/slog"
	"time"

	timerate "golang.org/x/time/rate"

	"github.com/MrEthical07/goThrottle/internal/audit"
	"github.com/MrEthical07/goThrottle/internal/cleaner"
	"github.com/MrEthical07/goThrottle/internal/stores"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config    Config
	clock     func() time.Time
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithThrottle replaces only the throttling policy.
func (b *Builder) WithThrottle(cfg ThrottleConfig) *Builder {
	b.config.Throttle = cfg
	return b
}

// WithClock overrides the time source used for failure timestamps and
// decisions.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithCleanerEnabled toggles the background sweep goroutine.
func (b *Builder) WithCleanerEnabled(enabled bool) *Builder {
	b.config.Cleaner.Enabled = enabled
	return b
}

// Build validates the configuration, wires the tracker, dispatcher and
// cleaner, and starts the cleaner when enabled.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		config:  cfg,
		now:     now,
		logger:  logger.With("component", "goThrottle"),
		metrics: NewMetrics(cfg.Metrics),
		tracker: stores.NewFailureTracker(stores.TrackerConfig{
			Shards:  cfg.Tracker.Shards,
			MaxKeys: cfg.Tracker.MaxKeys,
		}),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		denyLog: &timerate.Sometimes{First: 5, Interval: 10 * time.Second},
		dropLog: &timerate.Sometimes{First: 1, Interval: time.Minute},
	}

	e.cleaner = cleaner.New(
		e.tracker,
		e.currentRange,
		now,
		cleaner.Config{
			Interval:    cfg.Cleaner.Interval,
			MinInterval: cfg.Cleaner.MinInterval,
		},
		e.observeSweep,
	)

	e.applyThrottle(cfg.Throttle, true)

	if cfg.Cleaner.Enabled {
		e.cleaner.Start()
	}

	b.built = true
	return e, nil
}
