package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/optivet/optivet/internal/evaluator"
	"github.com/optivet/optivet/internal/sandbox"
	"github.com/optivet/optivet/internal/storage"
)

var (
	evaluateKeepSandbox bool
	evaluateJSON        bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <optimization-id>",
	Short: "Run the evaluation pipeline for an optimization",
	Long: `Evaluates a registered optimization: sandbox, compile, equivalence
tests, benchmark, complexity, verdict. Prints a summary and the evaluation ID.

The optimization ID may be abbreviated to any unambiguous prefix.

Example:
  optivet evaluate 3f2a
  optivet evaluate 3f2a --keep-sandbox --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if evaluateKeepSandbox {
			cfg.Engine.RetainSandboxes = true
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		coord := evaluator.NewCoordinator(store, cfg, logger)
		return runEvaluation(cmd.Context(), coord, args[0])
	},
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluateKeepSandbox, "keep-sandbox", false, "retain the sandbox directory for inspection")
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "output the evaluation as JSON")
}

// runEvaluation drives one evaluation and prints the result. Shared with the
// submit --evaluate and watch paths.
func runEvaluation(ctx context.Context, coord *evaluator.Coordinator, optimizationID string) error {
	eval, err := coord.Evaluate(ctx, optimizationID)
	if err != nil {
		return err
	}

	if evaluateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	}

	lang, err := coord.LanguageFor(ctx, eval.OptimizationID)
	if err != nil {
		return err
	}
	fmt.Print(sandbox.FormatTerminal(lang, resultFromEvaluation(eval)))
	fmt.Printf(" Evaluation: %s\n\n", eval.ID)
	return nil
}

// resultFromEvaluation rehydrates a run result from the stored blobs.
func resultFromEvaluation(eval *storage.Evaluation) *sandbox.RunResult {
	result := &sandbox.RunResult{
		Success: eval.Success,
		Report:  eval.Report,
	}
	// A decode failure leaves zeroed metrics; the verdict still prints.
	_ = json.Unmarshal([]byte(eval.Metrics), &result.Metrics)
	return result
}
