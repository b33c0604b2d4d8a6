// Command perf-regression compares two `go test -bench` outputs and fails
// when a tracked benchmark regresses beyond the allowed ratio.
//
//	go test -run '^$' -bench . -count 5 ./ > new.txt
//	perf-regression -baseline old.txt -candidate new.txt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const defaultThreshold = 0.30

var defaultTracked = map[string][]string{
	"BenchmarkPreCheck":                        {"ns/op", "allocs/op"},
	"BenchmarkPreCheckParallel":                {"ns/op"},
	"BenchmarkOnAuthenticationFailureParallel": {"ns/op"},
	"BenchmarkSweep":                           {"ns/op"},
}

// sampleSet maps benchmark name to unit to the samples seen across -count runs.
type sampleSet map[string]map[string][]float64

type comparison struct {
	benchmark string
	unit      string
	baseline  float64
	candidate float64
	delta     float64
	problem   string
}

func main() {
	var (
		baselinePath  string
		candidatePath string
		threshold     float64
	)

	flag.StringVar(&baselinePath, "baseline", "", "path to baseline benchmark output")
	flag.StringVar(&candidatePath, "candidate", "", "path to candidate benchmark output")
	flag.Float64Var(&threshold, "threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	flag.Parse()

	if baselinePath == "" || candidatePath == "" {
		fmt.Fprintln(os.Stderr, "-baseline and -candidate are required")
		os.Exit(2)
	}
	if threshold < 0 {
		fmt.Fprintln(os.Stderr, "-threshold must be >= 0")
		os.Exit(2)
	}

	baseline, err := parseBenchmarkFile(baselinePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse baseline: %v\n", err)
		os.Exit(1)
	}
	candidate, err := parseBenchmarkFile(candidatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse candidate: %v\n", err)
		os.Exit(1)
	}

	results := compare(baseline, candidate, defaultTracked, threshold)

	fmt.Println("benchmark unit baseline candidate delta")
	var failures []string
	for _, r := range results {
		if r.problem != "" {
			failures = append(failures, r.problem)
			continue
		}
		fmt.Printf("%s %s %.3f %.3f %+0.2f%%\n", r.benchmark, r.unit, r.baseline, r.candidate, r.delta*100)
	}

	if len(failures) > 0 {
		fmt.Fprintln(os.Stderr, "performance regression threshold exceeded:")
		for _, f := range failures {
			fmt.Fprintf(os.Stderr, "  - %s\n", f)
		}
		os.Exit(1)
	}
}

// compare evaluates every tracked benchmark unit by median. Results are
// sorted by benchmark then unit.
func compare(baseline, candidate sampleSet, tracked map[string][]string, threshold float64) []comparison {
	var out []comparison
	for benchmark, units := range tracked {
		for _, unit := range units {
			c := comparison{benchmark: benchmark, unit: unit}
			base := baseline[benchmark][unit]
			cand := candidate[benchmark][unit]

			switch {
			case len(base) == 0 || len(cand) == 0:
				c.problem = fmt.Sprintf("missing samples for %s %s", benchmark, unit)
			default:
				c.baseline, c.candidate = median(base), median(cand)
				if c.baseline <= 0 {
					// allocs/op of zero stays acceptable only while it stays zero.
					if c.candidate > 0 {
						c.problem = fmt.Sprintf("%s %s grew from 0 to %.3f", benchmark, unit, c.candidate)
					}
					break
				}
				c.delta = (c.candidate - c.baseline) / c.baseline
				if c.delta > threshold {
					c.problem = fmt.Sprintf("%s %s regressed by %+0.2f%% (limit %+0.2f%%)", benchmark, unit, c.delta*100, threshold*100)
				}
			}
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].benchmark != out[j].benchmark {
			return out[i].benchmark < out[j].benchmark
		}
		return out[i].unit < out[j].unit
	})
	return out
}

func parseBenchmarkFile(path string) (sampleSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseBenchmarks(file)
}

func parseBenchmarks(r io.Reader) (sampleSet, error) {
	samples := sampleSet{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "Benchmark") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		name := normalizeBenchmarkName(fields[0])
		if _, ok := samples[name]; !ok {
			samples[name] = map[string][]float64{}
		}

		// fields[1] is the iteration count; value/unit pairs follow.
		for i := 2; i+1 < len(fields); i += 2 {
			value, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				continue
			}
			unit := fields[i+1]
			samples[name][unit] = append(samples[name][unit], value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// normalizeBenchmarkName strips the -GOMAXPROCS suffix.
func normalizeBenchmarkName(raw string) string {
	if idx := strings.LastIndexByte(raw, '-'); idx > 0 {
		if _, err := strconv.Atoi(raw[idx+1:]); err == nil {
			return raw[:idx]
		}
	}
	return raw
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	copied := make([]float64, len(values))
	copy(copied, values)
	sort.Float64s(copied)

	mid := len(copied) / 2
	if len(copied)%2 == 1 {
		return copied[mid]
	}
	return (copied[mid-1] + copied[mid]) / 2
}
