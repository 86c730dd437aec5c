// Package cli provides the command-line interface for Optivet.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/optivet/optivet/internal/config"
	"github.com/optivet/optivet/internal/optimization"
	"github.com/optivet/optivet/internal/storage"
	"github.com/optivet/optivet/internal/storage/sqlite"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "optivet",
	Short: "Evaluation engine for proposed code optimizations",
	Long: `Optivet takes a proposed code optimization (an original/optimized pair),
sandboxes it, and decides whether the rewrite is safe to adopt.

Each evaluation compiles both versions, proves behavioral equivalence with
generated randomized tests, benchmarks both against fixed inputs, compares
structural complexity, and synthesizes a pass/fail verdict with a report.

Supported languages: python, javascript, typescript, ruby, go. Anything
else falls back to a byte-size comparison without execution.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		// Setup logger
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		// Load config
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./optivet.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)
}

// openStore opens the configured SQLite store.
func openStore() (storage.Store, error) {
	store, err := sqlite.Open(cfg.Engine.StorePath)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", cfg.Engine.StorePath, err)
	}
	return store, nil
}

// resolveLanguage normalizes a language argument. Known aliases map to their
// canonical tag; anything else passes through lowercased so the generic
// strategy stays reachable.
func resolveLanguage(s string) (optimization.Language, error) {
	if lang, err := optimization.ParseLanguage(s); err == nil {
		return lang, nil
	}
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" {
		return "", fmt.Errorf("language is required")
	}
	return optimization.Language(norm), nil
}

// Version information (set by build flags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("optivet version %s\n", Version)
		fmt.Printf("  commit: %s\n", Commit)
		fmt.Printf("  built:  %s\n", BuildDate)
	},
}
