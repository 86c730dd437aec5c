package optimization

import (
	"strings"
	"testing"
)

func TestParseLanguage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Language
	}{
		{"python", Python},
		{"py", Python},
		{"JavaScript", JavaScript},
		{"js", JavaScript},
		{"ts", TypeScript},
		{"rb", Ruby},
		{"golang", Go},
		{" go ", Go},
	}

	for _, tc := range cases {
		got, err := ParseLanguage(tc.in)
		if err != nil {
			t.Errorf("ParseLanguage(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLanguage(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := ParseLanguage("fortran"); err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestFingerprintStableAndDistinct(t *testing.T) {
	t.Parallel()

	a := Fingerprint(Python, "def f(): pass", "def f(): return")
	b := Fingerprint(Python, "def f(): pass", "def f(): return")
	if a != b {
		t.Error("fingerprint not stable for identical inputs")
	}
	if !strings.HasPrefix(a, "blake3:") {
		t.Errorf("fingerprint missing scheme prefix: %q", a)
	}

	if a == Fingerprint(Ruby, "def f(): pass", "def f(): return") {
		t.Error("fingerprint ignores language")
	}
	if a == Fingerprint(Python, "def f(): pass", "def f(): yield") {
		t.Error("fingerprint ignores optimized code")
	}
}

func TestOptimizationValidate(t *testing.T) {
	t.Parallel()

	valid := Optimization{
		OpportunityID: "opp-1",
		OriginalCode:  "x = 1",
		OptimizedCode: "x = 2",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid optimization rejected: %v", err)
	}

	missing := valid
	missing.OpportunityID = ""
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing opportunity ID")
	}

	blank := valid
	blank.OptimizedCode = "   \n"
	if err := blank.Validate(); err == nil {
		t.Error("expected error for blank optimized code")
	}
}

func TestExtension(t *testing.T) {
	t.Parallel()

	if got := JavaScript.Extension(); got != ".cjs" {
		t.Errorf("JavaScript extension = %q", got)
	}
	if got := Language("lua").Extension(); got != ".txt" {
		t.Errorf("unknown extension = %q", got)
	}
}
