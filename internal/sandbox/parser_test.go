package sandbox

import (
	"testing"

	"github.com/optivet/optivet/internal/optimization"
)

func TestParseCorrectnessPython(t *testing.T) {
	t.Parallel()

	output := `..F.
======================================================================
FAIL: test_double (equivalence_test.EquivalenceTest)
----------------------------------------------------------------------
Ran 4 tests in 0.002s

FAILED (failures=1)`

	result := parseCorrectness(optimization.Python, output, 1)
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.Passed != 3 {
		t.Errorf("Passed = %d, want 3", result.Passed)
	}
}

func TestParseCorrectnessPythonErrorsCount(t *testing.T) {
	t.Parallel()

	output := "Ran 5 tests in 0.010s\n\nFAILED (failures=1, errors=2)"
	result := parseCorrectness(optimization.Python, output, 1)
	if result.Failed != 3 {
		t.Errorf("Failed = %d, want 3 (failures + errors)", result.Failed)
	}
	if result.Passed != 2 {
		t.Errorf("Passed = %d, want 2", result.Passed)
	}
}

func TestParseCorrectnessScriptCounts(t *testing.T) {
	t.Parallel()

	result := parseCorrectness(optimization.JavaScript, "12 passed, 0 failed\n", 0)
	if result.Passed != 12 || result.Failed != 0 {
		t.Errorf("got %d passed, %d failed", result.Passed, result.Failed)
	}

	result = parseCorrectness(optimization.TypeScript, "9 passed, 3 failed\n", 1)
	if result.Passed != 9 || result.Failed != 3 {
		t.Errorf("got %d passed, %d failed", result.Passed, result.Failed)
	}
}

func TestParseCorrectnessRuby(t *testing.T) {
	t.Parallel()

	output := "4 runs, 100 assertions, 1 failures, 1 errors, 0 skips"
	result := parseCorrectness(optimization.Ruby, output, 1)
	if result.Failed != 2 {
		t.Errorf("Failed = %d, want 2", result.Failed)
	}
	if result.Passed != 2 {
		t.Errorf("Passed = %d, want 2", result.Passed)
	}
}

func TestParseCorrectnessGo(t *testing.T) {
	t.Parallel()

	output := `=== RUN   TestEquivalenceSum
--- PASS: TestEquivalenceSum (0.00s)
=== RUN   TestEquivalenceMax
--- FAIL: TestEquivalenceMax (0.00s)
FAIL`

	result := parseCorrectness(optimization.Go, output, 1)
	if result.Passed != 1 || result.Failed != 1 {
		t.Errorf("got %d passed, %d failed", result.Passed, result.Failed)
	}
}

func TestParsePerformanceBlockHz(t *testing.T) {
	t.Parallel()

	stdout := `Benchmarked transform: 100.00 ops/s vs 150.00 ops/s
BENCHMARK_RESULTS:
{"original": {"hz": 100.0}, "optimized": {"hz": 150.0}}
END_BENCHMARK_RESULTS`

	perf := parsePerformance(stdout)
	if perf.Source != PerfSourceBenchmark {
		t.Fatalf("Source = %s", perf.Source)
	}
	if perf.Improvement != 50.0 {
		t.Errorf("Improvement = %.2f, want 50.0", perf.Improvement)
	}
}

func TestParsePerformanceBlockTime(t *testing.T) {
	t.Parallel()

	stdout := `BENCHMARK_RESULTS:
{"original": {"time": 2.0}, "optimized": {"time": 1.0}}
END_BENCHMARK_RESULTS`

	perf := parsePerformance(stdout)
	if perf.Improvement != 50.0 {
		t.Errorf("Improvement = %.2f, want 50.0 (lower time is better)", perf.Improvement)
	}
}

func TestParsePerformanceExplicitImprovementWins(t *testing.T) {
	t.Parallel()

	stdout := `BENCHMARK_RESULTS:
{"original": {"time": 2.0}, "optimized": {"time": 1.0}, "improvement": 42.5, "callables": {"sum": 42.5}}
END_BENCHMARK_RESULTS`

	perf := parsePerformance(stdout)
	if perf.Improvement != 42.5 {
		t.Errorf("Improvement = %.2f, want 42.5", perf.Improvement)
	}
	if perf.PerCallable["sum"] != 42.5 {
		t.Errorf("PerCallable = %v", perf.PerCallable)
	}
}

func TestParsePerformanceSummaryFallback(t *testing.T) {
	t.Parallel()

	perf := parsePerformance("Benchmarked sum\nOverall performance change: -5.0%\n")
	if perf.Source != PerfSourceSummary {
		t.Fatalf("Source = %s", perf.Source)
	}
	if perf.Improvement != -5.0 {
		t.Errorf("Improvement = %.2f, want -5.0", perf.Improvement)
	}
}

func TestParsePerformanceMalformedBlockFallsBack(t *testing.T) {
	t.Parallel()

	stdout := `BENCHMARK_RESULTS:
not json at all
END_BENCHMARK_RESULTS
Overall performance change: +3.2%`

	perf := parsePerformance(stdout)
	if perf.Source != PerfSourceSummary {
		t.Fatalf("Source = %s, want summary fallback", perf.Source)
	}
	if perf.Improvement != 3.2 {
		t.Errorf("Improvement = %.2f", perf.Improvement)
	}
}

func TestParsePerformanceNothingParsable(t *testing.T) {
	t.Parallel()

	perf := parsePerformance("no benchmark output here")
	if perf.Source != PerfSourceNone {
		t.Errorf("Source = %s, want none", perf.Source)
	}
	if perf.Improvement != 0 {
		t.Errorf("Improvement = %.2f, want neutral 0", perf.Improvement)
	}
}

func TestEvaluateSuccessPredicate(t *testing.T) {
	t.Parallel()

	base := func() *Metrics {
		return &Metrics{
			Compilation: CompileResult{OriginalOK: true, OptimizedOK: true},
			Correctness: CorrectnessResult{Ran: true, Passed: 10},
			Performance: PerformanceResult{Improvement: 12.0, Source: PerfSourceBenchmark},
		}
	}

	if !evaluateSuccess(base()) {
		t.Error("clean run should succeed")
	}

	m := base()
	m.Compilation.OptimizedOK = false
	if evaluateSuccess(m) {
		t.Error("compile failure should fail")
	}

	m = base()
	m.Correctness.Failed = 1
	if evaluateSuccess(m) {
		t.Error("any correctness failure should fail")
	}

	m = base()
	m.Performance.Improvement = -5.0
	if evaluateSuccess(m) {
		t.Error("regression beyond tolerance should fail")
	}

	m = base()
	m.Performance.Improvement = -0.5
	if !evaluateSuccess(m) {
		t.Error("regression within tolerance should pass")
	}

	m = base()
	m.Performance = PerformanceResult{Source: PerfSourceNone}
	if !evaluateSuccess(m) {
		t.Error("missing performance data should not fail the run")
	}

	m = base()
	m.Compilation = CompileResult{Skipped: true}
	if !evaluateSuccess(m) {
		t.Error("skipped compile stage should count as passing")
	}
}
