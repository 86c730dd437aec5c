package sandbox

import (
	"strings"
	"testing"

	"github.com/optivet/optivet/internal/optimization"
)

func passingMetrics() *Metrics {
	return &Metrics{
		Compilation: CompileResult{OriginalOK: true, OptimizedOK: true},
		Correctness: CorrectnessResult{Ran: true, Passed: 25},
		Performance: PerformanceResult{Improvement: 12.5, Source: PerfSourceBenchmark},
		Complexity: ComplexityResult{
			Original:  ComplexityMetrics{Lines: 10, Score: 14},
			Optimized: ComplexityMetrics{Lines: 6, Score: 7},
			Diff:      ComplexityMetrics{Lines: -4, Score: -7},
		},
	}
}

func TestReportPassingNamesNoFailures(t *testing.T) {
	t.Parallel()

	m := passingMetrics()
	report := generateReport(optimization.Python, m, evaluateSuccess(m))

	if !strings.Contains(report, "RECOMMENDED") {
		t.Error("report missing verdict")
	}
	if strings.Contains(report, "NOT RECOMMENDED") {
		t.Error("passing report carries failing verdict")
	}
	if strings.Contains(report, "## Failures") {
		t.Error("passing report lists failures")
	}
	if !strings.Contains(report, "significant") {
		t.Error("12.5% improvement should read as significant")
	}
	if !strings.Contains(report, "maintainability") {
		t.Error("complexity decrease should note maintainability")
	}
}

func TestReportModerateImprovement(t *testing.T) {
	t.Parallel()

	m := passingMetrics()
	m.Performance.Improvement = 3.0
	report := generateReport(optimization.Python, m, true)

	if !strings.Contains(report, "moderate") {
		t.Error("3% improvement should read as moderate")
	}
	if strings.Contains(report, "significant") {
		t.Error("3% improvement must not read as significant")
	}
}

func TestReportFailingNamesEveryDisqualifyingStage(t *testing.T) {
	t.Parallel()

	m := passingMetrics()
	m.Correctness.Failed = 2
	m.Performance.Improvement = -8.0
	m.Failures = []StageFailure{
		{Stage: StageCorrectness, Reason: "2 equivalence test(s) failed"},
	}

	report := generateReport(optimization.Go, m, evaluateSuccess(m))
	if !strings.Contains(report, "NOT RECOMMENDED") {
		t.Error("failing report missing verdict")
	}
	if !strings.Contains(report, "2 equivalence test(s) failed") {
		t.Error("failing report does not name the correctness failure")
	}
	if !strings.Contains(report, "regresses performance by 8.0%") {
		t.Error("failing report does not name the regression")
	}
	if strings.Contains(report, "compiled cleanly.\n\n## Correctness") == false {
		t.Error("passing compile stage should still be described as clean")
	}
}

func TestReportSizeDeltaSource(t *testing.T) {
	t.Parallel()

	m := &Metrics{
		Compilation: CompileResult{Skipped: true},
		Performance: PerformanceResult{Improvement: 20.0, Source: PerfSourceSizeDelta},
	}
	report := generateReport(optimization.Language("lua"), m, true)
	if !strings.Contains(report, "no execution for this language") {
		t.Error("size-delta report should say execution was skipped")
	}
	if !strings.Contains(report, "stage skipped") {
		t.Error("skipped compile stage not mentioned")
	}
}

func TestFormatTerminal(t *testing.T) {
	t.Parallel()

	m := passingMetrics()
	result := &RunResult{Metrics: *m, Success: true}
	out := FormatTerminal(optimization.Ruby, result)

	if !strings.Contains(out, "✓ RECOMMENDED") {
		t.Error("terminal output missing verdict")
	}
	if !strings.Contains(out, "25 passed, 0 failed") {
		t.Error("terminal output missing correctness counts")
	}
	if FormatTerminal(optimization.Ruby, nil) != "" {
		t.Error("nil result should render empty")
	}
}
