package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var cleanForce bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove retained sandbox directories",
	Long: `Removes sandbox directories left behind under the configured sandbox
root, typically after evaluations run with --keep-sandbox.

By default, shows what would be deleted and asks for confirmation.
Use --force to skip confirmation.

Examples:
  optivet clean
  optivet clean --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := os.ReadDir(cfg.Engine.SandboxRoot)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("Nothing to clean.")
				return nil
			}
			return fmt.Errorf("reading sandbox root: %w", err)
		}

		var toDelete []string
		for _, entry := range entries {
			if entry.IsDir() {
				toDelete = append(toDelete, filepath.Join(cfg.Engine.SandboxRoot, entry.Name()))
			}
		}
		if len(toDelete) == 0 {
			fmt.Println("Nothing to clean.")
			return nil
		}

		// Show what will be deleted
		fmt.Println("The following sandbox directories will be deleted:")
		fmt.Println()
		for _, dir := range toDelete {
			fmt.Printf("  %s\n", dir)
		}
		fmt.Println()

		// Confirm unless --force
		if !cleanForce {
			fmt.Print("Delete these directories? [y/N] ")
			reader := bufio.NewReader(os.Stdin)
			response, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		deleted := 0
		for _, dir := range toDelete {
			if err := os.RemoveAll(dir); err != nil {
				fmt.Printf("  Failed to delete %s: %v\n", dir, err)
			} else {
				fmt.Printf("  Deleted %s\n", dir)
				deleted++
			}
		}

		fmt.Printf("\nCleaned up %d sandbox(es).\n", deleted)
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanForce, "force", false, "skip confirmation prompt")
}
