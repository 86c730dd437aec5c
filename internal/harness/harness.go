// Package harness materializes sandbox directories for optimization
// evaluations. Each supported language has a dedicated strategy that wraps
// the original and optimized code so both load side-by-side, and emits a
// generated equivalence test plus a deterministic benchmark. Anything
// without a dedicated strategy falls through to the generic byte-size
// strategy.
//
// Equivalence tests draw fresh randomized arguments on every run, so an
// optimization that diverges only on rare inputs may pass or fail depending
// on luck. Benchmarks use fixed arguments for repeatable timing.
package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/optivet/optivet/internal/config"
	"github.com/optivet/optivet/internal/optimization"
)

// SizeDelta carries the generic strategy's precomputed performance signal.
type SizeDelta struct {
	OriginalBytes  int     `json:"original_bytes"`
	OptimizedBytes int     `json:"optimized_bytes"`
	Improvement    float64 `json:"improvement"` // Positive means smaller optimized code
}

// Descriptor describes one materialized sandbox. File fields are relative to Dir.
type Descriptor struct {
	Dir           string                `json:"dir"`
	Language      optimization.Language `json:"language"`
	OriginalFile  string                `json:"original_file"`
	OptimizedFile string                `json:"optimized_file"`
	TestFile      string                `json:"test_file,omitempty"`
	BenchFile     string                `json:"bench_file,omitempty"`
	ManifestFile  string                `json:"manifest_file,omitempty"`

	// SizeDelta is set only by the generic strategy, which skips code
	// execution and supplies the performance signal directly.
	SizeDelta *SizeDelta `json:"size_delta,omitempty"`
}

// Generator is the per-language harness strategy.
type Generator interface {
	// Language returns the language this strategy handles.
	Language() optimization.Language

	// CreateExperiment writes a self-contained sandbox for the code pair and
	// returns its descriptor. On any error no partial sandbox is left behind.
	CreateExperiment(originalCode, optimizedCode string) (*Descriptor, error)
}

// For returns the generator for a language, falling back to the generic
// strategy for anything without a dedicated implementation.
func For(lang optimization.Language, cfg *config.Config) Generator {
	switch lang {
	case optimization.Python:
		return &pythonGenerator{cfg: cfg}
	case optimization.JavaScript:
		return &javascriptGenerator{cfg: cfg}
	case optimization.TypeScript:
		return &typescriptGenerator{cfg: cfg}
	case optimization.Ruby:
		return &rubyGenerator{cfg: cfg}
	case optimization.Go:
		return &goGenerator{cfg: cfg}
	default:
		return &genericGenerator{cfg: cfg, lang: lang}
	}
}

// newSandboxDir creates a uniquely named sandbox directory under the
// configured root. The name combines the language, a short content
// fingerprint, and a random suffix; timestamps alone collide under
// concurrent evaluations.
func newSandboxDir(cfg *config.Config, lang optimization.Language, originalCode, optimizedCode string) (string, error) {
	fp := optimization.Fingerprint(lang, originalCode, optimizedCode)
	short := strings.TrimPrefix(fp, "blake3:")
	if len(short) > 12 {
		short = short[:12]
	}

	name := fmt.Sprintf("%s-%s-%s", lang, short, uuid.NewString()[:8])
	dir := filepath.Join(cfg.Engine.SandboxRoot, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating sandbox directory: %w", err)
	}
	return dir, nil
}

// writeSandbox writes all files into dir. On any write error the whole
// sandbox is removed before the error is returned.
func writeSandbox(dir string, files map[string]string) error {
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			os.RemoveAll(dir)
			return fmt.Errorf("creating directory for %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			os.RemoveAll(dir)
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// ensureTrailingNewline normalizes wrapped code bodies.
func ensureTrailingNewline(code string) string {
	if !strings.HasSuffix(code, "\n") {
		return code + "\n"
	}
	return code
}
