package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <evaluation-id>",
	Short: "Display a stored evaluation",
	Long: `Shows a previous evaluation's report. The ID may be abbreviated to
any unambiguous prefix.

Example:
  optivet show 9c41
  optivet show 9c41 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		eval, err := store.GetEvaluation(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading evaluation: %w", err)
		}

		if showJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(eval)
		}

		fmt.Print(eval.Report)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")
}
