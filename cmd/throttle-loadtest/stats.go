package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	goThrottle "github.com/MrEthical07/goThrottle"
)

type phaseStats struct {
	total   time.Duration
	ops     int
	denied  int64
	p50     time.Duration
	p95     time.Duration
	p99     time.Duration
	opsPerS float64
}

func computeStats(total time.Duration, samples []time.Duration, denied int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:   total,
		ops:     len(samples),
		denied:  denied,
		p50:     percentile(samples, 50),
		p95:     percentile(samples, 95),
		p99:     percentile(samples, 99),
		opsPerS: float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

type summary struct {
	strategy      goThrottle.Strategy
	failure       phaseStats
	precheck      phaseStats
	trackedBefore int
	trackedAfter  int
	sweep         goThrottle.SweepResult
	auditEvents   int64
	auditDropped  uint64
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(16)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func phaseLine(name string, s phaseStats) string {
	return labelStyle.Render(name) + fmt.Sprintf("ops=%d denied=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s",
		s.ops,
		s.denied,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func field(name string, value any) string {
	return labelStyle.Render(name) + fmt.Sprint(value)
}

func renderSummary(s summary) string {
	lines := []string{
		titleStyle.Render("goThrottle load test"),
		field("strategy", s.strategy),
		phaseLine("failure", s.failure),
		phaseLine("precheck", s.precheck),
		field("tracked keys", fmt.Sprintf("%d -> %d", s.trackedBefore, s.trackedAfter)),
		field("sweep", fmt.Sprintf("evicted=%d duration=%s", s.sweep.Evicted, s.sweep.Duration.Round(time.Microsecond))),
		field("audit events", fmt.Sprintf("stream=%d dropped=%d", s.auditEvents, s.auditDropped)),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
