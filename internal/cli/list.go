package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/optivet/optivet/internal/storage"
)

var (
	listOptimization string
	listLimit        int
	listOffset       int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored evaluations",
	Long: `Lists evaluations, newest first.

Example:
  optivet list
  optivet list --optimization 3f2a --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		evals, err := store.ListEvaluations(cmd.Context(), storage.EvaluationListOptions{
			OptimizationID: listOptimization,
			Limit:          listLimit,
			Offset:         listOffset,
		})
		if err != nil {
			return fmt.Errorf("listing evaluations: %w", err)
		}

		if len(evals) == 0 {
			fmt.Println("No evaluations found.")
			return nil
		}

		fmt.Printf("%-36s  %-12s  %-8s  %s\n", "EVALUATION", "OPTIMIZATION", "VERDICT", "CREATED")
		for _, ev := range evals {
			verdict := "fail"
			if ev.Success {
				verdict = "pass"
			}
			optID := ev.OptimizationID
			if len(optID) > 12 {
				optID = optID[:12]
			}
			fmt.Printf("%-36s  %-12s  %-8s  %s\n",
				ev.ID, optID, verdict, ev.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listOptimization, "optimization", "", "filter by optimization ID")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum evaluations to show")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "evaluations to skip")
}
