// Package sandbox drives a generated sandbox through the evaluation
// pipeline: compile, correctness, performance, complexity. Each stage invokes
// the language's native toolchain as a subprocess and parses its textual
// output into structured metrics.
package sandbox

// Stage names, used to tag failures and report sections.
const (
	StageCompile     = "compile"
	StageCorrectness = "correctness"
	StagePerformance = "performance"
	StageComplexity  = "complexity"
)

// StageFailure records one stage's failure with a human-readable reason.
type StageFailure struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// CompileResult holds the compile stage outcome for both files.
type CompileResult struct {
	Skipped         bool   `json:"skipped"` // No compiler for this language; auto-pass
	OriginalOK      bool   `json:"original_ok"`
	OptimizedOK     bool   `json:"optimized_ok"`
	OriginalExit    int    `json:"original_exit"`
	OptimizedExit   int    `json:"optimized_exit"`
	OriginalOutput  string `json:"original_output,omitempty"`
	OptimizedOutput string `json:"optimized_output,omitempty"`
}

// BothOK reports whether both files compiled (or the stage was skipped).
func (c CompileResult) BothOK() bool {
	return c.Skipped || (c.OriginalOK && c.OptimizedOK)
}

// CorrectnessResult holds the parsed test runner outcome.
type CorrectnessResult struct {
	Ran      bool   `json:"ran"` // False when the stage was never reached or has no tests
	ExitCode int    `json:"exit_code"`
	Passed   int    `json:"passed"`
	Failed   int    `json:"failed"`
	Output   string `json:"output,omitempty"`
}

// Performance source values.
const (
	PerfSourceBenchmark = "benchmark"    // Parsed from the delimited results block
	PerfSourceSummary   = "summary-line" // Recovered from the overall-change line
	PerfSourceSizeDelta = "size-delta"   // Generic strategy byte-size signal
	PerfSourceNone      = "none"         // Nothing parsable; neutral zero
)

// PerformanceResult holds the normalized benchmark outcome. Improvement is a
// percentage where positive always means the optimization is faster,
// regardless of whether the language's benchmark reports throughput (hz,
// higher is better) or elapsed time (lower is better).
type PerformanceResult struct {
	Improvement float64            `json:"improvement"`
	Source      string             `json:"source"`
	Original    float64            `json:"original_metric,omitempty"`
	Optimized   float64            `json:"optimized_metric,omitempty"`
	PerCallable map[string]float64 `json:"per_callable,omitempty"`
}

// ComplexityMetrics holds static textual metrics for one source file.
type ComplexityMetrics struct {
	Lines     int     `json:"lines"`
	Chars     int     `json:"chars"`
	Functions int     `json:"functions"`
	Score     float64 `json:"score"`
}

// ComplexityResult compares the two files' structural complexity.
type ComplexityResult struct {
	Original  ComplexityMetrics `json:"original"`
	Optimized ComplexityMetrics `json:"optimized"`
	Diff      ComplexityMetrics `json:"diff"` // optimized minus original
}

// Metrics aggregates all stage results for one run. A stage the pipeline
// never reached keeps its zero value and is listed in no failure.
type Metrics struct {
	Compilation CompileResult     `json:"compilation"`
	Correctness CorrectnessResult `json:"correctness"`
	Performance PerformanceResult `json:"performance"`
	Complexity  ComplexityResult  `json:"complexity"`
	Failures    []StageFailure    `json:"failures,omitempty"`
}

// FailedStage reports whether the named stage has a recorded failure.
func (m *Metrics) FailedStage(stage string) bool {
	for _, f := range m.Failures {
		if f.Stage == stage {
			return true
		}
	}
	return false
}

// RunResult is the runner's complete output for one sandbox.
type RunResult struct {
	Metrics Metrics `json:"metrics"`
	Success bool    `json:"success"`
	Report  string  `json:"report"`
}

// regressionTolerance is the largest performance regression (in percent)
// that still counts as acceptable.
const regressionTolerance = -1.0

// evaluateSuccess applies the success predicate over completed metrics.
// Missing performance data counts as acceptable.
func evaluateSuccess(m *Metrics) bool {
	if !m.Compilation.BothOK() || m.FailedStage(StageCompile) {
		return false
	}
	if m.Correctness.Failed != 0 || m.FailedStage(StageCorrectness) {
		return false
	}
	if m.Performance.Source != PerfSourceNone && m.Performance.Improvement < regressionTolerance {
		return false
	}
	return true
}
