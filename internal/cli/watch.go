package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/optivet/optivet/internal/evaluator"
)

var (
	watchLanguage    string
	watchOriginal    string
	watchOptimized   string
	watchDescription string
	watchDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-evaluate a code pair whenever it changes on disk",
	Long: `Watches the original and optimized files and re-runs the full
evaluation after each change. Every saved revision is registered as its own
optimization, so the history stays queryable with list.

Example:
  optivet watch --language python --original slow.py --optimized fast.py`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, err := resolveLanguage(watchLanguage)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		coord := evaluator.NewCoordinator(store, cfg, logger)

		evaluatePair := func(ctx context.Context) {
			originalCode, err := os.ReadFile(watchOriginal)
			if err != nil {
				logger.Error("reading original", "error", err)
				return
			}
			optimizedCode, err := os.ReadFile(watchOptimized)
			if err != nil {
				logger.Error("reading optimized", "error", err)
				return
			}

			opt, err := coord.Submit(ctx, evaluator.SubmitOptions{
				Language:      lang,
				SourcePath:    watchOriginal,
				Description:   watchDescription,
				OriginalCode:  string(originalCode),
				OptimizedCode: string(optimizedCode),
			})
			if err != nil {
				logger.Error("registering pair", "error", err)
				return
			}
			if err := runEvaluation(ctx, coord, opt.ID); err != nil {
				logger.Error("evaluation failed", "error", err)
				return
			}
			fmt.Println(" Watching for changes... (Ctrl+C to stop)")
		}

		ctx := cmd.Context()
		evaluatePair(ctx)

		watcher, err := evaluator.NewWatcher(
			[]string{watchOriginal, watchOptimized},
			watchDebounce,
			func() { evaluatePair(ctx) },
			logger,
		)
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}

		if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchLanguage, "language", "l", "", "language of the code pair (required)")
	watchCmd.Flags().StringVar(&watchOriginal, "original", "", "path to the original code (required)")
	watchCmd.Flags().StringVar(&watchOptimized, "optimized", "", "path to the optimized code (required)")
	watchCmd.Flags().StringVarP(&watchDescription, "description", "d", "", "what the optimization claims to improve")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 200*time.Millisecond, "delay before re-evaluating after a change")
	_ = watchCmd.MarkFlagRequired("language")
	_ = watchCmd.MarkFlagRequired("original")
	_ = watchCmd.MarkFlagRequired("optimized")
}
