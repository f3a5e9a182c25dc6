package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	costsLimit int
	costsTotal bool
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Show spending for recent successful reviews",
	Long: `Show spending for recent successful reviews.

Cost rows are a projection of the review history; only reviews that
completed successfully carry a charge.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if costsTotal {
			stats, err := a.history.Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to aggregate costs: %w", err)
			}
			boldColor.Printf("Total spent: $%.4f across %d successful reviews\n", stats.TotalCost, stats.Succeeded)
			dimColor.Printf("Tokens: %d in / %d out\n", stats.InputTokens, stats.OutputTokens)
			if stats.Succeeded > 0 {
				dimColor.Printf("Average per review: $%.4f, %d tokens\n",
					stats.TotalCost/float64(stats.Succeeded),
					(stats.InputTokens+stats.OutputTokens)/int64(stats.Succeeded))
			}
			return nil
		}

		records, err := a.history.Costs(ctx, costsLimit)
		if err != nil {
			return fmt.Errorf("failed to list costs: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No completed reviews yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "#\tTARGET\tMODEL\tTOKENS\tCOST\tWHEN")
		var sum float64
		for _, r := range records {
			tokens := fmt.Sprintf("%d", r.Tokens)
			if r.Estimated {
				tokens += "*"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t$%.4f\t%s\n",
				r.Ordinal, r.UnitID, r.Model, tokens, r.Amount,
				r.Timestamp.Local().Format(time.RFC822))
			sum += r.Amount
		}
		if err := w.Flush(); err != nil {
			return err
		}
		dimColor.Printf("\nShown total: $%.4f (* = estimated tokens)\n", sum)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	costsCmd.Flags().IntVar(&costsLimit, "limit", 10, "Number of recent reviews to show")
	costsCmd.Flags().BoolVar(&costsTotal, "total", false, "Show aggregate spending only")
	rootCmd.AddCommand(costsCmd)
}
