package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the cache tier",
	Long: `Clear the cache tier's session counter and active set, then rebuild the
counter from the durable tier. Durable session and order records are untouched.`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	if err := a.sessions.Reset(ctx); err != nil {
		return err
	}

	count, err := a.sessions.ReconcileCounter(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile counter: %w", err)
	}

	fmt.Printf("Cache tier reset, counter reconciled to %d\n", count)
	return nil
}
