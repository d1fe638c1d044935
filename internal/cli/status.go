package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session and order status",
	Long:  `Show the current active session count and the orders in the kitchen pipeline.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	count, err := a.sessions.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count sessions: %w", err)
	}

	fmt.Printf("Active sessions: %d/%d\n", count, a.cfg.Session.MaxConcurrentCalls)

	sessions, err := a.sessions.ActiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, s := range sessions {
		fmt.Printf("  %s  %-5s  started %s\n",
			s.ID, s.InterfaceType, s.CreatedAt.Format("15:04:05"))
	}

	orders, err := a.orders.Active(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active orders: %w", err)
	}

	fmt.Printf("Active orders: %d\n", len(orders))
	for _, o := range orders {
		fmt.Printf("  #%d  %-18s  %s  $%.2f\n",
			o.ID, o.Status, o.CustomerName, o.TotalAmount)
	}

	return nil
}
