package goThrottle

import (
	"sync/atomic"
	"time"
)

// MetricID identifies an engine counter or histogram.
type MetricID uint16

const (
	// MetricPreCheckAllowed counts submissions allowed by an active policy.
	MetricPreCheckAllowed MetricID = iota
	// MetricPreCheckDenied counts submissions rejected as too frequent.
	MetricPreCheckDenied
	// MetricPreCheckBypassed counts submissions allowed because throttling is off.
	MetricPreCheckBypassed
	// MetricFailureRecorded counts failures written to the tracker.
	MetricFailureRecorded
	// MetricFailureIgnored counts failures not recorded because throttling is off.
	MetricFailureIgnored
	// MetricFailureDropped counts failures the tracker refused.
	MetricFailureDropped
	// MetricSuccessObserved counts successful authentications.
	MetricSuccessObserved
	// MetricSweepRuns counts cleaner passes that evaluated the tracker.
	MetricSweepRuns
	// MetricSweepSkipped counts cleaner passes skipped while throttling is off.
	MetricSweepSkipped
	// MetricEntriesEvicted counts tracker entries removed by sweeps.
	MetricEntriesEvicted
	// MetricConfigReloads counts applied configuration reloads.
	MetricConfigReloads
	// MetricThrottleDisabled counts configuration changes that turned throttling off.
	MetricThrottleDisabled
	// MetricPreCheckLatency is the pre-check latency histogram.
	MetricPreCheckLatency
	// MetricSweepLatency is the sweep latency histogram.
	MetricSweepLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

var histogramIDs = [...]MetricID{MetricPreCheckLatency, MetricSweepLatency}

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free engine counters. A nil or disabled Metrics
// ignores every update.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add adds n to a counter.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records a latency sample. Non-histogram IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || !isHistogram(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters, and histograms when latency tracking is on.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, len(histogramIDs)),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isHistogram(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range histogramIDs {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func isHistogram(id MetricID) bool {
	for _, h := range histogramIDs {
		if h == id {
			return true
		}
	}
	return false
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
