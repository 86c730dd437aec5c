// Package config provides configuration loading and management for Optivet.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/optivet/optivet/internal/optimization"
)

// ToolchainConfig defines how to invoke one language's toolchain.
type ToolchainConfig struct {
	Bin             string   `toml:"bin"`              // Interpreter or compiler driver binary
	CompilerBin     string   `toml:"compiler_bin"`     // Separate syntax-checker binary, when the language has one
	RunArgs         []string `toml:"run_args"`         // Extra args inserted before the script path
	BenchIterations int      `toml:"bench_iterations"` // Per-callable loop count in generated benchmarks
}

// EngineConfig contains engine-wide settings.
type EngineConfig struct {
	SandboxRoot     string `toml:"sandbox_root"`
	StorePath       string `toml:"store_path"`
	RetainSandboxes bool   `toml:"retain_sandboxes"`
	CompileTimeout  int    `toml:"compile_timeout"` // Seconds, per file
	TestTimeout     int    `toml:"test_timeout"`    // Seconds
	BenchTimeout    int    `toml:"bench_timeout"`   // Seconds
	TestSamples     int    `toml:"test_samples"`    // Randomized argument sets per callable
}

// Config holds all configuration for Optivet.
type Config struct {
	Engine     EngineConfig               `toml:"engine"`
	Python     ToolchainConfig            `toml:"python"`
	JavaScript ToolchainConfig            `toml:"javascript"`
	TypeScript ToolchainConfig            `toml:"typescript"`
	Ruby       ToolchainConfig            `toml:"ruby"`
	Go         ToolchainConfig            `toml:"go"`
	Toolchains map[string]ToolchainConfig `toml:"toolchains"` // Overrides for unlisted languages
}

// Default configuration values.
var Default = Config{
	Engine: EngineConfig{
		SandboxRoot:    "./sandboxes",
		StorePath:      "./optivet.db",
		CompileTimeout: 60,
		TestTimeout:    120,
		BenchTimeout:   300,
		TestSamples:    25,
	},
	Python: ToolchainConfig{
		Bin:             "python3",
		BenchIterations: 10000,
	},
	JavaScript: ToolchainConfig{
		Bin:             "node",
		BenchIterations: 100000,
	},
	TypeScript: ToolchainConfig{
		Bin:             "node",
		CompilerBin:     "tsc",
		RunArgs:         []string{"--experimental-strip-types", "--no-warnings"},
		BenchIterations: 100000,
	},
	Ruby: ToolchainConfig{
		Bin:             "ruby",
		BenchIterations: 10000,
	},
	Go: ToolchainConfig{
		Bin:             "go",
		BenchIterations: 100000,
	},
}

// configPaths returns the list of paths to search for config files.
func configPaths() []string {
	paths := []string{"./optivet.toml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".optivet.toml"))
		paths = append(paths, filepath.Join(home, ".config", "optivet", "config.toml"))
	}

	return paths
}

// Load loads configuration from a file or discovers it automatically.
// If configFile is empty, it searches standard locations.
// Returns default config if no file is found.
func Load(configFile string) (*Config, error) {
	cfg := Default // Start with defaults

	var path string
	if configFile != "" {
		path = configFile
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	} else {
		for _, p := range configPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return &cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// Ensure critical fields aren't zeroed out by partial config
	if cfg.Engine.SandboxRoot == "" {
		cfg.Engine.SandboxRoot = Default.Engine.SandboxRoot
	}
	if cfg.Engine.StorePath == "" {
		cfg.Engine.StorePath = Default.Engine.StorePath
	}
	if cfg.Engine.CompileTimeout <= 0 {
		cfg.Engine.CompileTimeout = Default.Engine.CompileTimeout
	}
	if cfg.Engine.TestTimeout <= 0 {
		cfg.Engine.TestTimeout = Default.Engine.TestTimeout
	}
	if cfg.Engine.BenchTimeout <= 0 {
		cfg.Engine.BenchTimeout = Default.Engine.BenchTimeout
	}
	if cfg.Engine.TestSamples <= 0 {
		cfg.Engine.TestSamples = Default.Engine.TestSamples
	}
	fillToolchain(&cfg.Python, Default.Python)
	fillToolchain(&cfg.JavaScript, Default.JavaScript)
	fillToolchain(&cfg.TypeScript, Default.TypeScript)
	fillToolchain(&cfg.Ruby, Default.Ruby)
	fillToolchain(&cfg.Go, Default.Go)

	return &cfg, nil
}

func fillToolchain(tc *ToolchainConfig, def ToolchainConfig) {
	if tc.Bin == "" {
		tc.Bin = def.Bin
	}
	if tc.CompilerBin == "" {
		tc.CompilerBin = def.CompilerBin
	}
	if len(tc.RunArgs) == 0 {
		tc.RunArgs = def.RunArgs
	}
	if tc.BenchIterations <= 0 {
		tc.BenchIterations = def.BenchIterations
	}
}

// Toolchain returns the toolchain configuration for a given language.
// Unknown languages fall back to the [toolchains] table, then to an
// empty config (the generic strategy runs no subprocesses).
func (c *Config) Toolchain(lang optimization.Language) ToolchainConfig {
	switch lang {
	case optimization.Python:
		return c.Python
	case optimization.JavaScript:
		return c.JavaScript
	case optimization.TypeScript:
		return c.TypeScript
	case optimization.Ruby:
		return c.Ruby
	case optimization.Go:
		return c.Go
	default:
		if c.Toolchains != nil {
			if tc, ok := c.Toolchains[string(lang)]; ok {
				return tc
			}
		}
		return ToolchainConfig{}
	}
}
