package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfred-cli/alfred/internal/core"
)

var (
	historyLimit int
	historyFile  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the append-only review history",
	RunE:  runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent reviews, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := a.history.List(ctx, historyLimit, historyFile)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	return printEntryTable(entries)
}

var historyShowCmd = &cobra.Command{
	Use:   "show [number]",
	Short: "Replay one recorded review in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		ordinal, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid review number %q: %w", args[0], err)
		}

		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		entry, err := a.history.Get(ctx, ordinal)
		if err != nil {
			return err
		}

		dimColor.Printf("Review #%d | %s | %s | focus %s | %s\n",
			entry.Ordinal, entry.UnitID, entry.Origin, entry.Focus,
			entry.CreatedAt.Local().Format(time.RFC822))
		printEntry(entry)
		return nil
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search review findings and output text",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()
		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		entries, err := a.history.Search(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to search history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Printf("No reviews match %q.\n", args[0])
			return nil
		}
		return printEntryTable(entries)
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate statistics over all reviews",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		stats, err := a.history.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to aggregate stats: %w", err)
		}

		boldColor.Printf("Reviews: %d total (%d succeeded, %d failed)\n",
			stats.TotalReviews, stats.Succeeded, stats.Failed)
		fmt.Printf("Distinct targets: %d\n", stats.FilesReviewed)
		fmt.Printf("Tokens: %d in / %d out\n", stats.InputTokens, stats.OutputTokens)
		fmt.Printf("Total cost: $%.4f\n", stats.TotalCost)
		if len(stats.ByFocus) > 0 {
			fmt.Println("By focus:")
			for _, focus := range core.FocusAreas() {
				if n, ok := stats.ByFocus[focus]; ok {
					fmt.Printf("  %-12s %d\n", focus, n)
				}
			}
		}
		return nil
	},
}

func printEntryTable(entries []core.HistoryEntry) error {
	if len(entries) == 0 {
		fmt.Println("No reviews recorded yet.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tTARGET\tFOCUS\tSTATUS\tFINDINGS\tCOST\tWHEN")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t$%.4f\t%s\n",
			e.Ordinal, e.UnitID, e.Focus, e.Status, len(e.Findings), e.Cost,
			e.CreatedAt.Local().Format(time.RFC822))
	}
	return w.Flush()
}

func init() { //nolint:gochecknoinits // Cobra command registration
	for _, cmd := range []*cobra.Command{historyCmd, historyListCmd} {
		cmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of reviews to show")
		cmd.Flags().StringVar(&historyFile, "file", "", "Only reviews whose target matches this path fragment")
	}
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historySearchCmd, historyStatsCmd)
	rootCmd.AddCommand(historyCmd)
}
