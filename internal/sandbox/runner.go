package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/optivet/optivet/internal/config"
	errsummary "github.com/optivet/optivet/internal/errors"
	"github.com/optivet/optivet/internal/harness"
)

// Runner drives sandboxes through the evaluation pipeline.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRunner creates a new runner.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// Run executes the full pipeline for one sandbox: compile, correctness,
// performance, complexity. Compile or correctness failures short-circuit the
// later execution stages; complexity always runs. Only a missing sandbox or
// an unspawnable toolchain surfaces as a top-level error; everything else is
// recorded in the returned metrics.
func (r *Runner) Run(ctx context.Context, desc *harness.Descriptor) (*RunResult, error) {
	if desc == nil {
		return nil, fmt.Errorf("nil sandbox descriptor")
	}
	info, err := os.Stat(desc.Dir)
	if err != nil {
		return nil, fmt.Errorf("sandbox directory missing: %s: %w", desc.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sandbox path is not a directory: %s", desc.Dir)
	}

	metrics := &Metrics{}
	tc := r.cfg.Toolchain(desc.Language)
	summarizer := errsummary.NewSummarizer(string(desc.Language))

	if desc.SizeDelta != nil {
		// Generic strategy: no execution, size delta is the signal.
		r.runGeneric(desc, metrics)
	} else {
		r.runStage(metrics, StageCompile, func() error {
			return r.runCompile(ctx, desc, tc, summarizer, metrics)
		})
		if metrics.Compilation.BothOK() && !metrics.FailedStage(StageCompile) {
			r.runStage(metrics, StageCorrectness, func() error {
				return r.runCorrectness(ctx, desc, tc, summarizer, metrics)
			})
		}
		if metrics.Correctness.Ran && metrics.Correctness.Failed == 0 && !metrics.FailedStage(StageCorrectness) {
			r.runStage(metrics, StagePerformance, func() error {
				return r.runBenchmark(ctx, desc, tc, metrics)
			})
		} else if metrics.Performance.Source == "" {
			metrics.Performance.Source = PerfSourceNone
		}
	}

	r.runStage(metrics, StageComplexity, func() error {
		return r.runComplexity(desc, metrics)
	})

	success := evaluateSuccess(metrics)
	return &RunResult{
		Metrics: *metrics,
		Success: success,
		Report:  generateReport(desc.Language, metrics, success),
	}, nil
}

// runStage invokes one stage with panic isolation, so a bug in a single
// stage degrades into a recorded failure instead of tearing down the run.
func (r *Runner) runStage(m *Metrics, stage string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("stage panicked", "stage", stage, "panic", p)
			m.Failures = append(m.Failures, StageFailure{
				Stage:  stage,
				Reason: fmt.Sprintf("internal error: %v", p),
			})
		}
	}()

	if err := fn(); err != nil {
		r.logger.Error("stage error", "stage", stage, "error", err)
		m.Failures = append(m.Failures, StageFailure{Stage: stage, Reason: err.Error()})
	}
}

func (r *Runner) runGeneric(desc *harness.Descriptor, m *Metrics) {
	m.Compilation = CompileResult{Skipped: true}
	m.Performance = PerformanceResult{
		Improvement: desc.SizeDelta.Improvement,
		Source:      PerfSourceSizeDelta,
		Original:    float64(desc.SizeDelta.OriginalBytes),
		Optimized:   float64(desc.SizeDelta.OptimizedBytes),
	}
}

func (r *Runner) runCompile(ctx context.Context, desc *harness.Descriptor, tc config.ToolchainConfig, summarizer *errsummary.Summarizer, m *Metrics) error {
	cmds := compileCommands(desc, tc)
	if cmds == nil {
		m.Compilation.Skipped = true
		return nil
	}

	timeout := time.Duration(r.cfg.Engine.CompileTimeout) * time.Second

	orig, err := runCommand(ctx, desc.Dir, timeout, cmds[0])
	if err != nil {
		return fmt.Errorf("compiling original: %w", err)
	}
	m.Compilation.OriginalOK = orig.ExitCode == 0 && !orig.TimedOut
	m.Compilation.OriginalExit = orig.ExitCode
	if !m.Compilation.OriginalOK {
		m.Compilation.OriginalOutput = orig.Combined
	}

	opt, err := runCommand(ctx, desc.Dir, timeout, cmds[1])
	if err != nil {
		return fmt.Errorf("compiling optimized: %w", err)
	}
	m.Compilation.OptimizedOK = opt.ExitCode == 0 && !opt.TimedOut
	m.Compilation.OptimizedExit = opt.ExitCode
	if !m.Compilation.OptimizedOK {
		m.Compilation.OptimizedOutput = opt.Combined
	}

	if !m.Compilation.BothOK() {
		reason := "compilation failed"
		if orig.TimedOut || opt.TimedOut {
			reason = fmt.Sprintf("compilation timed out after %ds", r.cfg.Engine.CompileTimeout)
		} else if summary := summarizer.Summarize(firstCompileError(m.Compilation)); len(summary) > 0 {
			reason = fmt.Sprintf("compilation failed: %s", summary[0])
		}
		m.Failures = append(m.Failures, StageFailure{Stage: StageCompile, Reason: reason})
	}
	return nil
}

func (r *Runner) runCorrectness(ctx context.Context, desc *harness.Descriptor, tc config.ToolchainConfig, summarizer *errsummary.Summarizer, m *Metrics) error {
	cmd := correctnessCommand(desc, tc)
	if cmd == nil {
		return nil
	}

	timeout := time.Duration(r.cfg.Engine.TestTimeout) * time.Second
	res, err := runCommand(ctx, desc.Dir, timeout, cmd)
	if err != nil {
		return fmt.Errorf("running equivalence tests: %w", err)
	}

	if res.TimedOut {
		m.Correctness = CorrectnessResult{Ran: true, ExitCode: res.ExitCode, Output: res.Combined}
		m.Failures = append(m.Failures, StageFailure{
			Stage:  StageCorrectness,
			Reason: fmt.Sprintf("equivalence tests timed out after %ds", r.cfg.Engine.TestTimeout),
		})
		return nil
	}

	m.Correctness = parseCorrectness(desc.Language, res.Combined, res.ExitCode)

	switch {
	case m.Correctness.Failed > 0:
		m.Failures = append(m.Failures, StageFailure{
			Stage:  StageCorrectness,
			Reason: fmt.Sprintf("%d equivalence test(s) failed", m.Correctness.Failed),
		})
	case res.ExitCode != 0:
		// A non-zero exit fails the stage even when the output claims
		// passes; the runner can crash after printing its summary.
		reason := fmt.Sprintf("equivalence test runner exited with code %d", res.ExitCode)
		if summary := summarizer.Summarize(res.Combined); len(summary) > 0 {
			reason = fmt.Sprintf("%s: %s", reason, summary[0])
		}
		m.Failures = append(m.Failures, StageFailure{Stage: StageCorrectness, Reason: reason})
	}
	return nil
}

func (r *Runner) runBenchmark(ctx context.Context, desc *harness.Descriptor, tc config.ToolchainConfig, m *Metrics) error {
	cmd := benchCommand(desc, tc)
	if cmd == nil {
		m.Performance = PerformanceResult{Source: PerfSourceNone}
		return nil
	}

	timeout := time.Duration(r.cfg.Engine.BenchTimeout) * time.Second
	res, err := runCommand(ctx, desc.Dir, timeout, cmd)
	if err != nil {
		return fmt.Errorf("running benchmark: %w", err)
	}

	if res.TimedOut {
		// Performance is advisory: record the stage failure but keep the
		// improvement neutral so the verdict rests on the other stages.
		m.Performance = PerformanceResult{Source: PerfSourceNone}
		m.Failures = append(m.Failures, StageFailure{
			Stage:  StagePerformance,
			Reason: fmt.Sprintf("benchmark timed out after %ds", r.cfg.Engine.BenchTimeout),
		})
		return nil
	}

	m.Performance = parsePerformance(res.Stdout)
	if m.Performance.Source == PerfSourceNone {
		r.logger.Warn("no parsable benchmark output", "dir", desc.Dir, "exit", res.ExitCode)
	}
	return nil
}

func (r *Runner) runComplexity(desc *harness.Descriptor, m *Metrics) error {
	orig, err := os.ReadFile(filepath.Join(desc.Dir, desc.OriginalFile))
	if err != nil {
		return fmt.Errorf("reading original for complexity: %w", err)
	}
	opt, err := os.ReadFile(filepath.Join(desc.Dir, desc.OptimizedFile))
	if err != nil {
		return fmt.Errorf("reading optimized for complexity: %w", err)
	}

	m.Complexity = compareComplexity(string(orig), string(opt), desc.Language)
	return nil
}

// Cleanup removes the sandbox directory unless retention is configured.
func (r *Runner) Cleanup(desc *harness.Descriptor) {
	if desc == nil || desc.Dir == "" {
		return
	}
	if r.cfg.Engine.RetainSandboxes {
		r.logger.Info("retaining sandbox", "dir", desc.Dir)
		return
	}
	if err := os.RemoveAll(desc.Dir); err != nil {
		r.logger.Warn("failed to remove sandbox", "dir", desc.Dir, "error", err)
	}
}
