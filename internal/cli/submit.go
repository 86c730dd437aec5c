package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/optivet/optivet/internal/evaluator"
)

var (
	submitLanguage    string
	submitOriginal    string
	submitOptimized   string
	submitDescription string
	submitAndEvaluate bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Register an original/optimized code pair",
	Long: `Registers a code pair for evaluation and prints the optimization ID.

A pair submitted twice with identical content returns the existing ID
instead of creating a duplicate.

Example:
  optivet submit --language python --original slow.py --optimized fast.py
  optivet submit -l go --original old.go --optimized new.go --evaluate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, err := resolveLanguage(submitLanguage)
		if err != nil {
			return err
		}

		originalCode, err := os.ReadFile(submitOriginal)
		if err != nil {
			return fmt.Errorf("reading original: %w", err)
		}
		optimizedCode, err := os.ReadFile(submitOptimized)
		if err != nil {
			return fmt.Errorf("reading optimized: %w", err)
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		coord := evaluator.NewCoordinator(store, cfg, logger)
		opt, err := coord.Submit(cmd.Context(), evaluator.SubmitOptions{
			Language:      lang,
			SourcePath:    submitOriginal,
			Description:   submitDescription,
			OriginalCode:  string(originalCode),
			OptimizedCode: string(optimizedCode),
		})
		if err != nil {
			return err
		}

		fmt.Println(opt.ID)

		if submitAndEvaluate {
			return runEvaluation(cmd.Context(), coord, opt.ID)
		}
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVarP(&submitLanguage, "language", "l", "", "language of the code pair (required)")
	submitCmd.Flags().StringVar(&submitOriginal, "original", "", "path to the original code (required)")
	submitCmd.Flags().StringVar(&submitOptimized, "optimized", "", "path to the optimized code (required)")
	submitCmd.Flags().StringVarP(&submitDescription, "description", "d", "", "what the optimization claims to improve")
	submitCmd.Flags().BoolVar(&submitAndEvaluate, "evaluate", false, "evaluate immediately after registering")
	_ = submitCmd.MarkFlagRequired("language")
	_ = submitCmd.MarkFlagRequired("original")
	_ = submitCmd.MarkFlagRequired("optimized")
}
