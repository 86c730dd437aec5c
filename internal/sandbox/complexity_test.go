package sandbox

import (
	"testing"

	"github.com/optivet/optivet/internal/optimization"
)

func TestAnalyzeComplexityPython(t *testing.T) {
	t.Parallel()

	code := `def collect(items):
    result = []
    for item in items:
        if item > 0:
            result.append(item)
    return result
`
	m := analyzeComplexity(code, optimization.Python)
	if m.Functions != 1 {
		t.Errorf("Functions = %d, want 1", m.Functions)
	}
	if m.Lines != 6 {
		t.Errorf("Lines = %d, want 6 (blank lines excluded)", m.Lines)
	}
	if m.Score <= 0 {
		t.Errorf("Score = %.1f, want > 0", m.Score)
	}
}

func TestComprehensionScoresLowerThanLoop(t *testing.T) {
	t.Parallel()

	loop := `def collect(items):
    result = []
    for item in items:
        if item > 0:
            result.append(item)
    return result
`
	comprehension := `def collect(items):
    return [item for item in items if item > 0]
`
	loopScore := analyzeComplexity(loop, optimization.Python).Score
	compScore := analyzeComplexity(comprehension, optimization.Python).Score
	if compScore >= loopScore {
		t.Errorf("comprehension score %.1f not below loop score %.1f", compScore, loopScore)
	}
}

func TestMaxNestingDepthBraces(t *testing.T) {
	t.Parallel()

	code := `func outer() {
	if true {
		for {
			x := 1
			_ = x
		}
	}
}
`
	if depth := maxNestingDepth(code, optimization.Go); depth != 3 {
		t.Errorf("depth = %d, want 3", depth)
	}
}

func TestMaxNestingDepthUnbalancedBraces(t *testing.T) {
	t.Parallel()

	if depth := maxNestingDepth("}}}{", optimization.JavaScript); depth != 1 {
		t.Errorf("depth = %d, want 1", depth)
	}
}

func TestCompareComplexityDiff(t *testing.T) {
	t.Parallel()

	orig := `function sum(values) {
	let total = 0;
	for (const v of values) {
		total += v;
	}
	return total;
}
`
	opt := `function sum(values) {
	return values.reduce((a, b) => a + b, 0);
}
`
	result := compareComplexity(orig, opt, optimization.JavaScript)
	if result.Diff.Lines >= 0 {
		t.Errorf("Diff.Lines = %d, want negative", result.Diff.Lines)
	}
	if result.Diff.Score >= 0 {
		t.Errorf("Diff.Score = %.1f, want negative for the simpler rewrite", result.Diff.Score)
	}
	if result.Original.Chars != len(orig) {
		t.Errorf("Original.Chars = %d, want %d", result.Original.Chars, len(orig))
	}
}
