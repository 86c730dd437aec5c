package sandbox

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/optivet/optivet/internal/optimization"
)

// Test runner output differs per toolchain, so pass/fail counts are
// recovered from textual patterns rather than exit codes alone. A parsed
// non-zero failure count overrides a zero exit.

var (
	pyRanRe      = regexp.MustCompile(`Ran (\d+) tests?`)
	pyFailuresRe = regexp.MustCompile(`failures=(\d+)`)
	pyErrorsRe   = regexp.MustCompile(`errors=(\d+)`)

	scriptCountsRe = regexp.MustCompile(`(\d+) passed, (\d+) failed`)

	rubySummaryRe = regexp.MustCompile(`(\d+) runs?, \d+ assertions, (\d+) failures, (\d+) errors`)

	goPassRe = regexp.MustCompile(`(?m)^\s*--- PASS:`)
	goFailRe = regexp.MustCompile(`(?m)^\s*--- FAIL:`)

	genericFailedRe = regexp.MustCompile(`(\d+) fail(?:ed|ures)`)
)

// parseCorrectness extracts pass/fail counts from test runner output.
func parseCorrectness(lang optimization.Language, output string, exitCode int) CorrectnessResult {
	result := CorrectnessResult{Ran: true, ExitCode: exitCode, Output: output}

	switch lang {
	case optimization.Python:
		if m := pyFailuresRe.FindStringSubmatch(output); m != nil {
			result.Failed, _ = strconv.Atoi(m[1])
		}
		if m := pyErrorsRe.FindStringSubmatch(output); m != nil {
			n, _ := strconv.Atoi(m[1])
			result.Failed += n
		}
		if m := pyRanRe.FindStringSubmatch(output); m != nil {
			ran, _ := strconv.Atoi(m[1])
			result.Passed = ran - result.Failed
		}
	case optimization.JavaScript, optimization.TypeScript:
		if m := scriptCountsRe.FindStringSubmatch(output); m != nil {
			result.Passed, _ = strconv.Atoi(m[1])
			result.Failed, _ = strconv.Atoi(m[2])
		}
	case optimization.Ruby:
		if m := rubySummaryRe.FindStringSubmatch(output); m != nil {
			runs, _ := strconv.Atoi(m[1])
			failures, _ := strconv.Atoi(m[2])
			errs, _ := strconv.Atoi(m[3])
			result.Failed = failures + errs
			result.Passed = runs - result.Failed
		}
	case optimization.Go:
		result.Passed = len(goPassRe.FindAllString(output, -1))
		result.Failed = len(goFailRe.FindAllString(output, -1))
	default:
		if m := genericFailedRe.FindStringSubmatch(output); m != nil {
			result.Failed, _ = strconv.Atoi(m[1])
		}
	}

	if result.Passed < 0 {
		result.Passed = 0
	}
	return result
}

const (
	benchBlockStart = "BENCHMARK_RESULTS:"
	benchBlockEnd   = "END_BENCHMARK_RESULTS"
)

var summaryLineRe = regexp.MustCompile(`Overall performance change:\s*([+-]?\d+(?:\.\d+)?)%`)

type benchSide struct {
	Hz   *float64 `json:"hz"`
	Time *float64 `json:"time"`
}

type benchPayload struct {
	Original    benchSide          `json:"original"`
	Optimized   benchSide          `json:"optimized"`
	Improvement *float64           `json:"improvement"`
	Callables   map[string]float64 `json:"callables"`
}

// parsePerformance recovers the normalized improvement percentage from
// benchmark stdout. It prefers the delimited results block, falls back to
// the overall-change summary line, and degrades to a neutral zero when
// neither is present. Positive always means the optimization is faster: hz
// is throughput (higher better), time is elapsed (lower better).
func parsePerformance(stdout string) PerformanceResult {
	if block, ok := extractBenchBlock(stdout); ok {
		var payload benchPayload
		if err := json.Unmarshal([]byte(block), &payload); err == nil {
			return normalizeBench(payload)
		}
	}

	if m := summaryLineRe.FindStringSubmatch(stdout); m != nil {
		improvement, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return PerformanceResult{Improvement: improvement, Source: PerfSourceSummary}
		}
	}

	return PerformanceResult{Source: PerfSourceNone}
}

func extractBenchBlock(stdout string) (string, bool) {
	start := strings.Index(stdout, benchBlockStart)
	if start < 0 {
		return "", false
	}
	rest := stdout[start+len(benchBlockStart):]
	end := strings.Index(rest, benchBlockEnd)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func normalizeBench(payload benchPayload) PerformanceResult {
	result := PerformanceResult{
		Source:      PerfSourceBenchmark,
		PerCallable: payload.Callables,
	}

	switch {
	case payload.Original.Hz != nil && payload.Optimized.Hz != nil:
		result.Original = *payload.Original.Hz
		result.Optimized = *payload.Optimized.Hz
		if result.Original != 0 {
			result.Improvement = (result.Optimized - result.Original) / result.Original * 100
		}
	case payload.Original.Time != nil && payload.Optimized.Time != nil:
		result.Original = *payload.Original.Time
		result.Optimized = *payload.Optimized.Time
		if result.Original != 0 {
			result.Improvement = (result.Original - result.Optimized) / result.Original * 100
		}
	}

	// An explicit improvement field wins over the recomputed value.
	if payload.Improvement != nil {
		result.Improvement = *payload.Improvement
	}
	return result
}
