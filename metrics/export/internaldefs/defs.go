package internaldefs

import (
	goThrottle "github.com/MrEthical07/goThrottle"
)

type CounterDef struct {
	ID   goThrottle.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   goThrottle.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: goThrottle.MetricPreCheckAllowed, Name: "gothrottle_precheck_allowed_total", Help: "Submissions allowed by an active throttling policy."},
	{ID: goThrottle.MetricPreCheckDenied, Name: "gothrottle_precheck_denied_total", Help: "Submissions rejected because the key failed too recently."},
	{ID: goThrottle.MetricPreCheckBypassed, Name: "gothrottle_precheck_bypassed_total", Help: "Submissions allowed while throttling is disabled."},
	{ID: goThrottle.MetricFailureRecorded, Name: "gothrottle_failure_recorded_total", Help: "Authentication failures written to the tracker."},
	{ID: goThrottle.MetricFailureIgnored, Name: "gothrottle_failure_ignored_total", Help: "Authentication failures ignored while throttling is disabled."},
	{ID: goThrottle.MetricFailureDropped, Name: "gothrottle_failure_dropped_total", Help: "Authentication failures refused by a full tracker."},
	{ID: goThrottle.MetricSuccessObserved, Name: "gothrottle_success_observed_total", Help: "Successful authentications observed."},
	{ID: goThrottle.MetricSweepRuns, Name: "gothrottle_sweep_runs_total", Help: "Cleaner passes that evaluated the tracker."},
	{ID: goThrottle.MetricSweepSkipped, Name: "gothrottle_sweep_skipped_total", Help: "Cleaner passes skipped while throttling is disabled."},
	{ID: goThrottle.MetricEntriesEvicted, Name: "gothrottle_entries_evicted_total", Help: "Tracker entries evicted by the cleaner."},
	{ID: goThrottle.MetricConfigReloads, Name: "gothrottle_config_reloads_total", Help: "Applied throttling policy reloads."},
	{ID: goThrottle.MetricThrottleDisabled, Name: "gothrottle_throttle_disabled_total", Help: "Policy changes that turned throttling off."},
}

var HistogramDefs = []HistogramDef{
	{ID: goThrottle.MetricPreCheckLatency, Name: "gothrottle_precheck_latency_seconds", Help: "Pre-check latency histogram."},
	{ID: goThrottle.MetricSweepLatency, Name: "gothrottle_sweep_latency_seconds", Help: "Sweep latency histogram."},
}

const (
	TrackedKeysName = "gothrottle_tracked_keys"
	TrackedKeysHelp = "Keys currently held by the failure tracker."

	AuditDroppedName = "gothrottle_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// HistogramBounds are the upper bounds in seconds, matching the engine's
// millisecond buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix names each bound in instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling gaps.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
