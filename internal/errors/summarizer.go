// Package errors provides error summarization for different programming languages.
package errors

import (
	"regexp"
	"strconv"
	"strings"
)

// Pattern represents a regex pattern and its human-readable summary.
type Pattern struct {
	Regex   *regexp.Regexp
	Summary string
}

// Summarizer extracts human-readable error summaries from compiler/test output.
type Summarizer struct {
	patterns []Pattern
}

// NewSummarizer creates a summarizer for the given language.
func NewSummarizer(language string) *Summarizer {
	var patterns []Pattern

	switch language {
	case "python":
		patterns = pythonPatterns
	case "javascript":
		patterns = jsPatterns
	case "typescript":
		patterns = tsPatterns
	case "ruby":
		patterns = rubyPatterns
	case "go":
		patterns = goPatterns
	default:
		patterns = nil
	}

	return &Summarizer{patterns: patterns}
}

// Summarize extracts error summaries from output.
// Returns a slice of human-readable error messages.
func (s *Summarizer) Summarize(output string) []string {
	if len(s.patterns) == 0 {
		return s.fallbackSummary(output)
	}

	var summaries []string
	seen := make(map[string]bool)

	lines := strings.Split(output, "\n")
	for _, line := range lines {
		for _, p := range s.patterns {
			if matches := p.Regex.FindStringSubmatch(line); matches != nil {
				summary := p.Summary
				for i, match := range matches[1:] {
					placeholder := "$" + strconv.Itoa(i+1)
					summary = strings.ReplaceAll(summary, placeholder, match)
				}

				if !seen[summary] {
					seen[summary] = true
					summaries = append(summaries, summary)
				}
			}
		}
	}

	if len(summaries) == 0 {
		return s.fallbackSummary(output)
	}

	return summaries
}

// fallbackSummary returns the first few lines of error output when no patterns match.
func (s *Summarizer) fallbackSummary(output string) []string {
	lines := strings.Split(strings.TrimSpace(output), "\n")

	var result []string
	for i, line := range lines {
		if i >= 5 {
			break
		}
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "===") && !strings.HasPrefix(line, "---") {
			result = append(result, line)
		}
	}

	return result
}

// Python error patterns.
var pythonPatterns = []Pattern{
	{regexp.MustCompile(`SyntaxError: (.+)`), "Syntax error: $1"},
	{regexp.MustCompile(`IndentationError: (.+)`), "Indentation error: $1"},
	{regexp.MustCompile(`NameError: name '(.+?)' is not defined`), "Undefined name: $1"},
	{regexp.MustCompile(`TypeError: (.+)`), "Type error: $1"},
	{regexp.MustCompile(`ValueError: (.+)`), "Value error: $1"},
	{regexp.MustCompile(`AttributeError: (.+)`), "Attribute error: $1"},
	{regexp.MustCompile(`ImportError: (.+)`), "Import error: $1"},
	{regexp.MustCompile(`ModuleNotFoundError: (.+)`), "Module not found: $1"},
	{regexp.MustCompile(`ZeroDivisionError: (.+)`), "Division by zero: $1"},
	{regexp.MustCompile(`RecursionError: (.+)`), "Recursion limit exceeded: $1"},
	{regexp.MustCompile(`AssertionError: (.+)`), "Assertion failed: $1"},
	{regexp.MustCompile(`FAIL: (test_\w+)`), "Test failed: $1"},
	{regexp.MustCompile(`ERROR: (test_\w+)`), "Test errored: $1"},
}

// JavaScript error patterns.
var jsPatterns = []Pattern{
	{regexp.MustCompile(`SyntaxError: (.+)`), "Syntax error: $1"},
	{regexp.MustCompile(`ReferenceError: (.+?) is not defined`), "Undefined reference: $1"},
	{regexp.MustCompile(`TypeError: (.+?) is not a function`), "Not a function: $1"},
	{regexp.MustCompile(`TypeError: (.+)`), "Type error: $1"},
	{regexp.MustCompile(`RangeError: (.+)`), "Range error: $1"},
	{regexp.MustCompile(`Cannot find module '(.+?)'`), "Cannot find module: $1"},
	{regexp.MustCompile(`AssertionError.*?: (.+)`), "Assertion failed: $1"},
	{regexp.MustCompile(`✗ (\w+)`), "Test failed: $1"},
}

// TypeScript error patterns.
var tsPatterns = []Pattern{
	{regexp.MustCompile(`TS2322: Type '(.+?)' is not assignable to type '(.+?)'`), "Type '$1' is not assignable to '$2'"},
	{regexp.MustCompile(`TS2339: Property '(.+?)' does not exist on type '(.+?)'`), "Property '$1' does not exist on type '$2'"},
	{regexp.MustCompile(`TS2345: Argument of type '(.+?)' is not assignable`), "Argument type mismatch: $1"},
	{regexp.MustCompile(`TS2304: Cannot find name '(.+?)'`), "Cannot find name '$1'"},
	{regexp.MustCompile(`TS2551: Property '(.+?)' does not exist.*Did you mean '(.+?)'`), "Property '$1' does not exist, did you mean '$2'?"},
	{regexp.MustCompile(`TS2532: Object is possibly 'undefined'`), "Object is possibly undefined"},
	{regexp.MustCompile(`TS2531: Object is possibly 'null'`), "Object is possibly null"},
	{regexp.MustCompile(`TS7006: Parameter '(.+?)' implicitly has an 'any' type`), "Parameter '$1' needs type annotation"},
	{regexp.MustCompile(`SyntaxError: (.+)`), "Syntax error: $1"},
	{regexp.MustCompile(`ReferenceError: (.+?) is not defined`), "Undefined reference: $1"},
	{regexp.MustCompile(`AssertionError.*?: (.+)`), "Assertion failed: $1"},
}

// Ruby error patterns.
var rubyPatterns = []Pattern{
	{regexp.MustCompile(`syntax error, (.+)`), "Syntax error: $1"},
	{regexp.MustCompile(`undefined method ['\x60](.+?)['\x27]`), "Undefined method: $1"},
	{regexp.MustCompile(`undefined local variable or method ['\x60](.+?)['\x27]`), "Undefined variable or method: $1"},
	{regexp.MustCompile(`wrong number of arguments \(given (\d+), expected (\d+)\)`), "Wrong number of arguments: given $1, expected $2"},
	{regexp.MustCompile(`NoMethodError`), "No method error"},
	{regexp.MustCompile(`ArgumentError: (.+)`), "Argument error: $1"},
	{regexp.MustCompile(`TypeError: (.+)`), "Type error: $1"},
	{regexp.MustCompile(`ZeroDivisionError`), "Division by zero"},
	{regexp.MustCompile(`Failure:`), "Test failed"},
	{regexp.MustCompile(`Error:`), "Test errored"},
}

// Go error patterns.
var goPatterns = []Pattern{
	{regexp.MustCompile(`cannot use (.+) \(.*?\) as (.+)`), "Type mismatch: $1 cannot be used as $2"},
	{regexp.MustCompile(`undefined: (\w+)`), "Undefined: $1"},
	{regexp.MustCompile(`(\w+) declared (and|but) not used`), "Unused variable: $1"},
	{regexp.MustCompile(`cannot assign to (.+)`), "Cannot assign to $1"},
	{regexp.MustCompile(`invalid operation: (.+)`), "Invalid operation: $1"},
	{regexp.MustCompile(`too many arguments in call to (\w+)`), "Too many arguments to $1"},
	{regexp.MustCompile(`not enough arguments in call to (\w+)`), "Not enough arguments to $1"},
	{regexp.MustCompile(`cannot convert (.+) to (.+)`), "Cannot convert $1 to $2"},
	{regexp.MustCompile(`missing return`), "Missing return statement"},
	{regexp.MustCompile(`(\w+) redeclared`), "Redeclared: $1"},
	{regexp.MustCompile(`imported and not used: "(.+)"`), "Unused import: $1"},
	{regexp.MustCompile(`panic: (.+)`), "Panic: $1"},
	{regexp.MustCompile(`--- FAIL: (\w+)`), "Test failed: $1"},
}
