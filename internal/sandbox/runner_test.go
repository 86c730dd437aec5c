package sandbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/optivet/optivet/internal/config"
	errsummary "github.com/optivet/optivet/internal/errors"
	"github.com/optivet/optivet/internal/harness"
	"github.com/optivet/optivet/internal/optimization"
)

func testRunner(t *testing.T) (*Runner, *config.Config) {
	t.Helper()
	cfg := config.Default
	cfg.Engine.SandboxRoot = t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRunner(&cfg, logger), &cfg
}

func TestRunMissingSandboxDir(t *testing.T) {
	t.Parallel()

	runner, _ := testRunner(t)
	desc := &harness.Descriptor{Dir: "/nonexistent/sandbox", Language: optimization.Python}
	if _, err := runner.Run(context.Background(), desc); err == nil {
		t.Fatal("expected error for missing sandbox directory")
	}

	if _, err := runner.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil descriptor")
	}
}

func TestRunGenericEndToEnd(t *testing.T) {
	t.Parallel()

	runner, cfg := testRunner(t)
	gen := harness.For(optimization.Language("lua"), cfg)
	desc, err := gen.CreateExperiment(
		"local function sum(t)\n  local r = 0\n  for _, v in ipairs(t) do r = r + v end\n  return r\nend\n",
		"local function sum(t)\n  return #t\nend\n",
	)
	if err != nil {
		t.Fatal(err)
	}

	result, err := runner.Run(context.Background(), desc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Metrics.Compilation.BothOK() {
		t.Error("generic path should auto-pass compilation")
	}
	if result.Metrics.Correctness.Failed != 0 {
		t.Error("generic path should not record test failures")
	}
	if result.Metrics.Performance.Source != PerfSourceSizeDelta {
		t.Errorf("Performance.Source = %s, want size-delta", result.Metrics.Performance.Source)
	}
	if result.Metrics.Performance.Improvement <= 0 {
		t.Errorf("Improvement = %.1f, want positive for the shorter rewrite", result.Metrics.Performance.Improvement)
	}
	if !result.Success {
		t.Error("shrinking generic rewrite should succeed")
	}
	if !strings.Contains(result.Report, "RECOMMENDED") {
		t.Error("report missing verdict")
	}
	if result.Metrics.Complexity.Original.Lines == 0 {
		t.Error("complexity stage did not read the source files")
	}
}

func TestRunGenericGrowthFails(t *testing.T) {
	t.Parallel()

	runner, cfg := testRunner(t)
	gen := harness.For(optimization.Language("lua"), cfg)
	desc, err := gen.CreateExperiment("short\n", strings.Repeat("much longer rewrite\n", 10))
	if err != nil {
		t.Fatal(err)
	}

	result, err := runner.Run(context.Background(), desc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success {
		t.Error("large size growth should fail the regression tolerance")
	}
}

// A test runner that prints passing output and then exits non-zero (a crash
// in teardown, for example) must still fail the correctness stage.
func TestCorrectnessNonZeroExitFailsDespitePassingOutput(t *testing.T) {
	t.Parallel()

	runner, _ := testRunner(t)
	dir := t.TempDir()
	script := "echo 'Ran 3 tests in 0.001s'\necho 'OK'\nexit 1\n"
	if err := os.WriteFile(filepath.Join(dir, "equivalence_test.py"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	desc := &harness.Descriptor{Dir: dir, Language: optimization.Python, TestFile: "equivalence_test.py"}
	m := &Metrics{Compilation: CompileResult{Skipped: true}}
	err := runner.runCorrectness(context.Background(), desc, config.ToolchainConfig{Bin: "sh"},
		errsummary.NewSummarizer("python"), m)
	if err != nil {
		t.Fatalf("runCorrectness: %v", err)
	}

	if m.Correctness.Passed != 3 || m.Correctness.Failed != 0 {
		t.Fatalf("parsed counts = %d passed, %d failed", m.Correctness.Passed, m.Correctness.Failed)
	}
	if m.Correctness.ExitCode != 1 {
		t.Errorf("ExitCode = %d", m.Correctness.ExitCode)
	}
	if !m.FailedStage(StageCorrectness) {
		t.Error("non-zero exit did not record a correctness failure")
	}
	m.Performance.Source = PerfSourceNone
	if evaluateSuccess(m) {
		t.Error("run with non-zero test exit must not succeed")
	}
}

func TestBenchmarkTimeoutRecordsStageFailure(t *testing.T) {
	t.Parallel()

	runner, cfg := testRunner(t)
	cfg.Engine.BenchTimeout = 1
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bench.py"), []byte("exec sleep 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	desc := &harness.Descriptor{Dir: dir, Language: optimization.Python, BenchFile: "bench.py"}
	m := &Metrics{Compilation: CompileResult{Skipped: true}}
	if err := runner.runBenchmark(context.Background(), desc, config.ToolchainConfig{Bin: "sh"}, m); err != nil {
		t.Fatalf("runBenchmark: %v", err)
	}

	if m.Performance.Source != PerfSourceNone {
		t.Errorf("Performance.Source = %s, want none", m.Performance.Source)
	}
	if !m.FailedStage(StagePerformance) {
		t.Error("benchmark timeout did not record a performance failure")
	}
	if !strings.Contains(m.Failures[0].Reason, "timed out") {
		t.Errorf("Reason = %q", m.Failures[0].Reason)
	}
	// Performance stays advisory: the timeout alone does not flip the verdict.
	if !evaluateSuccess(m) {
		t.Error("benchmark timeout must not fail an otherwise clean run")
	}
}

func TestCompileTimeoutNamedInFailure(t *testing.T) {
	t.Parallel()

	runner, cfg := testRunner(t)
	cfg.Engine.CompileTimeout = 1
	dir := t.TempDir()
	bin := filepath.Join(dir, "slowcc")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nexec sleep 5\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	desc := &harness.Descriptor{
		Dir:           dir,
		Language:      optimization.Python,
		OriginalFile:  "original.py",
		OptimizedFile: "optimized.py",
	}
	m := &Metrics{}
	err := runner.runCompile(context.Background(), desc, config.ToolchainConfig{Bin: bin},
		errsummary.NewSummarizer("python"), m)
	if err != nil {
		t.Fatalf("runCompile: %v", err)
	}

	if m.Compilation.BothOK() {
		t.Fatal("timed-out compile counted as ok")
	}
	if !m.FailedStage(StageCompile) {
		t.Fatal("no compile failure recorded")
	}
	if !strings.Contains(m.Failures[0].Reason, "timed out") {
		t.Errorf("Reason = %q, want the timeout named", m.Failures[0].Reason)
	}
}

func TestCleanupRespectsRetention(t *testing.T) {
	t.Parallel()

	runner, cfg := testRunner(t)
	gen := harness.For(optimization.Language("lua"), cfg)

	desc, err := gen.CreateExperiment("a\n", "b\n")
	if err != nil {
		t.Fatal(err)
	}
	runner.Cleanup(desc)
	if _, err := os.Stat(desc.Dir); !os.IsNotExist(err) {
		t.Error("sandbox not removed with retention off")
	}

	cfg.Engine.RetainSandboxes = true
	desc, err = gen.CreateExperiment("c\n", "d\n")
	if err != nil {
		t.Fatal(err)
	}
	runner.Cleanup(desc)
	if _, err := os.Stat(desc.Dir); err != nil {
		t.Error("sandbox removed despite retention")
	}
}
