package sandbox

import (
	"fmt"
	"strings"

	"github.com/optivet/optivet/internal/optimization"
)

// significantThreshold separates a "significant" performance improvement
// from a "moderate" one in the narrative.
const significantThreshold = 5.0

// generateReport renders the markdown evaluation report. A failing report
// names every disqualifying stage; a passing report names none.
func generateReport(lang optimization.Language, m *Metrics, success bool) string {
	var sb strings.Builder

	sb.WriteString("# Optimization Evaluation Report\n\n")
	if success {
		sb.WriteString("**Verdict:** ✅ RECOMMENDED\n\n")
	} else {
		sb.WriteString("**Verdict:** ❌ NOT RECOMMENDED\n\n")
	}
	fmt.Fprintf(&sb, "**Language:** %s\n\n", lang)

	if len(m.Failures) > 0 {
		sb.WriteString("## Failures\n\n")
		for _, f := range m.Failures {
			fmt.Fprintf(&sb, "- **%s:** %s\n", f.Stage, f.Reason)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString("## Compilation\n\n")
	switch {
	case m.Compilation.Skipped:
		sb.WriteString("No compile phase for this language; stage skipped.\n\n")
	case m.Compilation.BothOK():
		sb.WriteString("Both versions compiled cleanly.\n\n")
	default:
		fmt.Fprintf(&sb, "- Original: %s\n", okLabel(m.Compilation.OriginalOK))
		fmt.Fprintf(&sb, "- Optimized: %s\n\n", okLabel(m.Compilation.OptimizedOK))
		if out := firstCompileError(m.Compilation); out != "" {
			sb.WriteString("```\n")
			sb.WriteString(strings.TrimSpace(out))
			sb.WriteString("\n```\n\n")
		}
	}

	sb.WriteString("## Correctness\n\n")
	if !m.Correctness.Ran {
		sb.WriteString("Equivalence tests were not executed.\n\n")
	} else {
		fmt.Fprintf(&sb, "- Passed: %d\n", m.Correctness.Passed)
		fmt.Fprintf(&sb, "- Failed: %d\n\n", m.Correctness.Failed)
		if m.Correctness.Failed == 0 && m.Correctness.Passed > 0 {
			sb.WriteString("The optimized version produced identical results to the original across all generated inputs.\n\n")
		}
	}

	sb.WriteString("## Performance\n\n")
	writePerformance(&sb, m.Performance)

	sb.WriteString("## Complexity\n\n")
	writeComplexity(&sb, m.Complexity)

	return sb.String()
}

func okLabel(ok bool) string {
	if ok {
		return "✅ OK"
	}
	return "❌ failed"
}

func firstCompileError(c CompileResult) string {
	if !c.OriginalOK {
		return c.OriginalOutput
	}
	if !c.OptimizedOK {
		return c.OptimizedOutput
	}
	return ""
}

func writePerformance(sb *strings.Builder, p PerformanceResult) {
	switch p.Source {
	case PerfSourceNone:
		sb.WriteString("No benchmark data could be recovered; performance is treated as neutral.\n\n")
		return
	case PerfSourceSizeDelta:
		fmt.Fprintf(sb, "Code size changed by %+.1f%% (no execution for this language).\n\n", p.Improvement)
		return
	case PerfSourceSummary:
		fmt.Fprintf(sb, "**Overall change:** %+.1f%% (recovered from summary line)\n\n", p.Improvement)
	default:
		fmt.Fprintf(sb, "**Overall change:** %+.1f%%\n\n", p.Improvement)
		if p.Original != 0 || p.Optimized != 0 {
			fmt.Fprintf(sb, "- Original: %.2f\n", p.Original)
			fmt.Fprintf(sb, "- Optimized: %.2f\n\n", p.Optimized)
		}
	}

	switch {
	case p.Improvement >= significantThreshold:
		fmt.Fprintf(sb, "The optimization delivers a significant speedup of %.1f%%.\n\n", p.Improvement)
	case p.Improvement > 0:
		fmt.Fprintf(sb, "The optimization delivers a moderate speedup of %.1f%%.\n\n", p.Improvement)
	case p.Improvement >= regressionTolerance:
		sb.WriteString("Performance is effectively unchanged.\n\n")
	default:
		fmt.Fprintf(sb, "The optimization regresses performance by %.1f%%.\n\n", -p.Improvement)
	}

	if len(p.PerCallable) > 0 {
		sb.WriteString("Per-callable change:\n\n")
		for name, pct := range p.PerCallable {
			fmt.Fprintf(sb, "- `%s`: %+.1f%%\n", name, pct)
		}
		sb.WriteString("\n")
	}
}

func writeComplexity(sb *strings.Builder, c ComplexityResult) {
	fmt.Fprintf(sb, "| Metric | Original | Optimized | Diff |\n")
	fmt.Fprintf(sb, "|--------|----------|-----------|------|\n")
	fmt.Fprintf(sb, "| Lines | %d | %d | %+d |\n", c.Original.Lines, c.Optimized.Lines, c.Diff.Lines)
	fmt.Fprintf(sb, "| Chars | %d | %d | %+d |\n", c.Original.Chars, c.Optimized.Chars, c.Diff.Chars)
	fmt.Fprintf(sb, "| Functions | %d | %d | %+d |\n", c.Original.Functions, c.Optimized.Functions, c.Diff.Functions)
	fmt.Fprintf(sb, "| Score | %.1f | %.1f | %+.1f |\n\n", c.Original.Score, c.Optimized.Score, c.Diff.Score)

	if c.Diff.Score < 0 {
		sb.WriteString("The optimized version is structurally simpler, which should help maintainability.\n\n")
	} else if c.Diff.Score > 0 {
		sb.WriteString("The optimized version is structurally more complex; weigh the speedup against the added maintenance cost.\n\n")
	}
}

// FormatTerminal renders a compact terminal summary of one run.
func FormatTerminal(lang optimization.Language, result *RunResult) string {
	if result == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&sb, " OPTIVET EVALUATION                               (%s)\n", lang)
	sb.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	sb.WriteString("\n")

	if result.Success {
		sb.WriteString(" ✓ RECOMMENDED\n")
	} else {
		sb.WriteString(" ✗ NOT RECOMMENDED\n")
	}
	sb.WriteString("\n")

	m := &result.Metrics
	fmt.Fprintf(&sb, " Compile:     %s\n", okLabel(m.Compilation.BothOK()))
	if m.Correctness.Ran {
		fmt.Fprintf(&sb, " Correctness: %d passed, %d failed\n", m.Correctness.Passed, m.Correctness.Failed)
	} else {
		sb.WriteString(" Correctness: not run\n")
	}
	if m.Performance.Source != PerfSourceNone {
		fmt.Fprintf(&sb, " Performance: %+.1f%% (%s)\n", m.Performance.Improvement, m.Performance.Source)
	} else {
		sb.WriteString(" Performance: no data\n")
	}
	fmt.Fprintf(&sb, " Complexity:  %+.1f score\n", m.Complexity.Diff.Score)

	if len(m.Failures) > 0 {
		sb.WriteString("\n Failures:\n")
		for _, f := range m.Failures {
			fmt.Fprintf(&sb, "   • %s: %s\n", f.Stage, f.Reason)
		}
	}

	sb.WriteString("\n")
	return sb.String()
}
