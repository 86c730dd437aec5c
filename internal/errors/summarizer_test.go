package errors

import (
	"strings"
	"testing"
)

func TestSummarizePython(t *testing.T) {
	t.Parallel()

	s := NewSummarizer("python")
	output := `Traceback (most recent call last):
  File "original.py", line 3, in <module>
NameError: name 'totl' is not defined`

	summaries := s.Summarize(output)
	if len(summaries) == 0 {
		t.Fatal("expected at least one summary")
	}
	if summaries[0] != "Undefined name: totl" {
		t.Errorf("got %q", summaries[0])
	}
}

func TestSummarizeGoTestFailure(t *testing.T) {
	t.Parallel()

	s := NewSummarizer("go")
	output := `=== RUN   TestEquivalenceSum
--- FAIL: TestEquivalenceSum (0.00s)
FAIL`

	summaries := s.Summarize(output)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d: %v", len(summaries), summaries)
	}
	if summaries[0] != "Test failed: TestEquivalenceSum" {
		t.Errorf("got %q", summaries[0])
	}
}

func TestSummarizeRubyArguments(t *testing.T) {
	t.Parallel()

	s := NewSummarizer("ruby")
	output := "test.rb:5:in 'sum': wrong number of arguments (given 3, expected 2) (ArgumentError)"

	summaries := s.Summarize(output)
	if len(summaries) == 0 {
		t.Fatal("expected at least one summary")
	}
	if summaries[0] != "Wrong number of arguments: given 3, expected 2" {
		t.Errorf("got %q", summaries[0])
	}
}

func TestSummarizeDeduplicates(t *testing.T) {
	t.Parallel()

	s := NewSummarizer("javascript")
	output := `ReferenceError: foo is not defined
ReferenceError: foo is not defined`

	summaries := s.Summarize(output)
	if len(summaries) != 1 {
		t.Errorf("expected deduplicated summaries, got %v", summaries)
	}
}

func TestSummarizeFallbackForUnknownLanguage(t *testing.T) {
	t.Parallel()

	s := NewSummarizer("cobol")
	output := "first error line\nsecond error line\n\n=== separator ===\nthird"

	summaries := s.Summarize(output)
	if len(summaries) == 0 {
		t.Fatal("expected fallback summaries")
	}
	if !strings.Contains(summaries[0], "first error line") {
		t.Errorf("got %q", summaries[0])
	}
	for _, line := range summaries {
		if strings.HasPrefix(line, "===") {
			t.Errorf("separator line leaked into summary: %q", line)
		}
	}
}
