package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/optivet/optivet/internal/optimization"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Engine.TestSamples != Default.Engine.TestSamples {
		t.Errorf("TestSamples = %d, want %d", cfg.Engine.TestSamples, Default.Engine.TestSamples)
	}
	if cfg.Python.Bin != "python3" {
		t.Errorf("Python.Bin = %q, want python3", cfg.Python.Bin)
	}
	if cfg.Go.BenchIterations != 100000 {
		t.Errorf("Go.BenchIterations = %d, want 100000", cfg.Go.BenchIterations)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	t.Parallel()

	if _, err := Load("/nonexistent/optivet.toml"); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadPartialConfigBackfills(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "optivet.toml")
	content := `
[engine]
sandbox_root = "/tmp/boxes"

[python]
bin = "python3.12"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Engine.SandboxRoot != "/tmp/boxes" {
		t.Errorf("SandboxRoot = %q", cfg.Engine.SandboxRoot)
	}
	if cfg.Python.Bin != "python3.12" {
		t.Errorf("Python.Bin = %q", cfg.Python.Bin)
	}
	// Unspecified values come from defaults.
	if cfg.Engine.TestTimeout != Default.Engine.TestTimeout {
		t.Errorf("TestTimeout = %d, want %d", cfg.Engine.TestTimeout, Default.Engine.TestTimeout)
	}
	if cfg.Python.BenchIterations != Default.Python.BenchIterations {
		t.Errorf("Python.BenchIterations = %d", cfg.Python.BenchIterations)
	}
	if cfg.Ruby.Bin != "ruby" {
		t.Errorf("Ruby.Bin = %q", cfg.Ruby.Bin)
	}
}

func TestToolchainLookup(t *testing.T) {
	t.Parallel()

	cfg := Default
	cfg.Toolchains = map[string]ToolchainConfig{
		"lua": {Bin: "lua5.4"},
	}

	if tc := cfg.Toolchain(optimization.TypeScript); tc.CompilerBin != "tsc" {
		t.Errorf("TypeScript CompilerBin = %q", tc.CompilerBin)
	}
	if tc := cfg.Toolchain(optimization.Language("lua")); tc.Bin != "lua5.4" {
		t.Errorf("lua Bin = %q", tc.Bin)
	}
	if tc := cfg.Toolchain(optimization.Language("cobol")); tc.Bin != "" {
		t.Errorf("unknown language Bin = %q, want empty", tc.Bin)
	}
}
