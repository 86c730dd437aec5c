package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/optivet/optivet/internal/config"
	"github.com/optivet/optivet/internal/harness"
	"github.com/optivet/optivet/internal/optimization"
)

// execResult captures one toolchain subprocess invocation.
type execResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Combined string
	Duration time.Duration
	TimedOut bool
}

// runCommand executes a toolchain command inside the sandbox directory with a
// bounded timeout. The process is killed when the deadline passes and the
// result is marked TimedOut; only spawn-level problems (missing binary)
// surface as errors.
func runCommand(ctx context.Context, dir string, timeout time.Duration, argv []string) (*execResult, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(cmdCtx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var stdout, stderr, combined bytes.Buffer
	cmd.Stdout = newTeeWriter(&stdout, &combined)
	cmd.Stderr = newTeeWriter(&stderr, &combined)

	err := cmd.Run()
	result := &execResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Combined: combined.String(),
		Duration: time.Since(start),
		TimedOut: errors.Is(cmdCtx.Err(), context.DeadlineExceeded),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if result.TimedOut {
			result.ExitCode = -1
			return result, nil
		}
		return nil, fmt.Errorf("running %s: %w", argv[0], err)
	}
	return result, nil
}

type teeWriter struct {
	primary *bytes.Buffer
	mirror  *bytes.Buffer
}

func newTeeWriter(primary, mirror *bytes.Buffer) *teeWriter {
	return &teeWriter{primary: primary, mirror: mirror}
}

func (w *teeWriter) Write(p []byte) (int, error) {
	w.mirror.Write(p)
	return w.primary.Write(p)
}

// compileCommands returns one syntax-check command per file, or nil when the
// language has no compile phase (the stage auto-passes).
func compileCommands(desc *harness.Descriptor, tc config.ToolchainConfig) [][]string {
	switch desc.Language {
	case optimization.Python:
		return [][]string{
			{tc.Bin, "-m", "py_compile", desc.OriginalFile},
			{tc.Bin, "-m", "py_compile", desc.OptimizedFile},
		}
	case optimization.JavaScript:
		return [][]string{
			{tc.Bin, "--check", desc.OriginalFile},
			{tc.Bin, "--check", desc.OptimizedFile},
		}
	case optimization.TypeScript:
		return [][]string{
			{tc.CompilerBin, "--noEmit", desc.OriginalFile},
			{tc.CompilerBin, "--noEmit", desc.OptimizedFile},
		}
	case optimization.Ruby:
		return [][]string{
			{tc.Bin, "-c", desc.OriginalFile},
			{tc.Bin, "-c", desc.OptimizedFile},
		}
	case optimization.Go:
		return [][]string{
			{tc.Bin, "build", "./" + filepath.Dir(desc.OriginalFile)},
			{tc.Bin, "build", "./" + filepath.Dir(desc.OptimizedFile)},
		}
	default:
		return nil
	}
}

// correctnessCommand returns the native test runner invocation, or nil when
// the sandbox carries no test file.
func correctnessCommand(desc *harness.Descriptor, tc config.ToolchainConfig) []string {
	if desc.TestFile == "" {
		return nil
	}
	switch desc.Language {
	case optimization.Python, optimization.JavaScript, optimization.Ruby:
		return []string{tc.Bin, desc.TestFile}
	case optimization.TypeScript:
		return append(append([]string{tc.Bin}, tc.RunArgs...), desc.TestFile)
	case optimization.Go:
		return []string{tc.Bin, "test", "-v", "."}
	default:
		return nil
	}
}

// benchCommand returns the benchmark invocation, or nil when the sandbox
// carries no benchmark file.
func benchCommand(desc *harness.Descriptor, tc config.ToolchainConfig) []string {
	if desc.BenchFile == "" {
		return nil
	}
	switch desc.Language {
	case optimization.Python, optimization.JavaScript, optimization.Ruby:
		return []string{tc.Bin, desc.BenchFile}
	case optimization.TypeScript:
		return append(append([]string{tc.Bin}, tc.RunArgs...), desc.BenchFile)
	case optimization.Go:
		return []string{tc.Bin, "run", "."}
	default:
		return nil
	}
}
