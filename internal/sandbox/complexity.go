package sandbox

import (
	"regexp"
	"strings"

	"github.com/optivet/optivet/internal/optimization"
)

// Static, pattern-based complexity metrics. The score weighs control-flow
// keyword density and nesting depth, with small discounts for idiomatic
// simplifications (comprehensions, generators, functional chains).

var complexityKeywords = map[optimization.Language][]string{
	optimization.Python:     {"if ", "elif ", "else:", "for ", "while ", "try:", "except", "with "},
	optimization.JavaScript: {"if ", "if(", "else", "for ", "for(", "while ", "while(", "switch", "case ", "catch"},
	optimization.TypeScript: {"if ", "if(", "else", "for ", "for(", "while ", "while(", "switch", "case ", "catch"},
	optimization.Ruby:       {"if ", "elsif ", "else", "unless ", "while ", "until ", "case ", "when ", "rescue"},
	optimization.Go:         {"if ", "else", "for ", "switch", "case ", "select", "go ", "defer "},
}

var functionPatterns = map[optimization.Language]*regexp.Regexp{
	optimization.Python:     regexp.MustCompile(`(?m)^\s*def\s+\w+`),
	optimization.JavaScript: regexp.MustCompile(`(?m)function\s+\w+|=>`),
	optimization.TypeScript: regexp.MustCompile(`(?m)function\s+\w+|=>`),
	optimization.Ruby:       regexp.MustCompile(`(?m)^\s*def\s+\w+`),
	optimization.Go:         regexp.MustCompile(`(?m)^func\s`),
}

var simplificationPatterns = map[optimization.Language][]*regexp.Regexp{
	optimization.Python: {
		regexp.MustCompile(`[\[{(][^\]})]*\bfor\b[^\]})]*\bin\b`), // comprehension
		regexp.MustCompile(`\byield\b`),
	},
	optimization.JavaScript: {
		regexp.MustCompile(`\.(map|filter|reduce)\(`),
	},
	optimization.TypeScript: {
		regexp.MustCompile(`\.(map|filter|reduce)\(`),
	},
	optimization.Ruby: {
		regexp.MustCompile(`\.(map|select|reduce|each_with_object)\b`),
	},
}

var braceLanguages = map[optimization.Language]bool{
	optimization.JavaScript: true,
	optimization.TypeScript: true,
	optimization.Go:         true,
}

// analyzeComplexity computes static metrics for one source body.
func analyzeComplexity(code string, lang optimization.Language) ComplexityMetrics {
	m := ComplexityMetrics{
		Chars: len(code),
	}

	lines := strings.Split(code, "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			m.Lines++
		}
	}

	if re, ok := functionPatterns[lang]; ok {
		m.Functions = len(re.FindAllString(code, -1))
	}

	keywordCount := 0
	for _, kw := range complexityKeywords[lang] {
		keywordCount += strings.Count(code, kw)
	}

	depth := maxNestingDepth(code, lang)

	discount := 0
	for _, re := range simplificationPatterns[lang] {
		discount += len(re.FindAllString(code, -1))
	}

	score := float64(keywordCount)*2 + float64(depth)*3 + float64(m.Functions) - float64(discount)
	if score < 0 {
		score = 0
	}
	m.Score = score
	return m
}

// maxNestingDepth approximates structural nesting: brace depth for brace
// languages, indentation depth elsewhere.
func maxNestingDepth(code string, lang optimization.Language) int {
	if braceLanguages[lang] {
		depth, maxDepth := 0, 0
		for _, r := range code {
			switch r {
			case '{':
				depth++
				if depth > maxDepth {
					maxDepth = depth
				}
			case '}':
				if depth > 0 {
					depth--
				}
			}
		}
		return maxDepth
	}

	maxDepth := 0
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := 0
		for _, r := range line {
			if r == ' ' {
				indent++
			} else if r == '\t' {
				indent += 4
			} else {
				break
			}
		}
		if depth := indent / 4; depth > maxDepth {
			maxDepth = depth
		}
	}
	return maxDepth
}

// compareComplexity builds the stage result for both files.
func compareComplexity(originalCode, optimizedCode string, lang optimization.Language) ComplexityResult {
	orig := analyzeComplexity(originalCode, lang)
	opt := analyzeComplexity(optimizedCode, lang)
	return ComplexityResult{
		Original:  orig,
		Optimized: opt,
		Diff: ComplexityMetrics{
			Lines:     opt.Lines - orig.Lines,
			Chars:     opt.Chars - orig.Chars,
			Functions: opt.Functions - orig.Functions,
			Score:     opt.Score - orig.Score,
		},
	}
}
