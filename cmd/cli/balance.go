package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the remaining review balance",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		amount, err := a.ledger.Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to read balance: %w", err)
		}

		boldColor.Printf("Balance: $%.4f\n", amount)
		if updated, err := a.ledger.LastUpdated(ctx); err == nil && !updated.IsZero() {
			dimColor.Printf("Last updated: %s\n", updated.Local().Format(time.RFC822))
		}
		if amount <= a.cfg.MinBalance {
			warnColor.Println("Balance is at or below the minimum; new reviews will be rejected.")
			return nil
		}

		// Rough runway estimate from the historical average cost.
		stats, err := a.history.Stats(ctx)
		if err == nil && stats.Succeeded > 0 && stats.TotalCost > 0 {
			avg := stats.TotalCost / float64(stats.Succeeded)
			dimColor.Printf("Roughly %d reviews remaining at the average cost of $%.4f\n",
				int(amount/avg), avg)
		}
		return nil
	},
}

var balanceSetCmd = &cobra.Command{
	Use:   "set [amount]",
	Short: "Set the review balance in dollars",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[0], err)
		}
		if amount < 0 {
			return fmt.Errorf("balance cannot be negative, got %.4f", amount)
		}

		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := a.ledger.Set(ctx, amount); err != nil {
			return fmt.Errorf("failed to set balance: %w", err)
		}
		successColor.Printf("Balance set to $%.4f\n", amount)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	balanceCmd.AddCommand(balanceSetCmd)
	rootCmd.AddCommand(balanceCmd)
}
