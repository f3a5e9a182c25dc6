package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfred-cli/alfred/internal/core"
	"github.com/alfred-cli/alfred/internal/review"
)

var (
	prFocus     string
	postComment bool
)

var reviewPRCmd = &cobra.Command{
	Use:   "review-pr [pr-url|#number]",
	Short: "Run an AI code review for a GitHub pull request",
	Long: `Run an AI code review for a GitHub pull request.

Each changed file's diff is reviewed as its own unit; the per-unit results
are recorded in the history and charged against the balance individually.
A bare number like #42 resolves against the current directory's origin
remote.

Examples:
  alfred review-pr https://github.com/owner/repo/pull/123
  alfred review-pr "#42" --focus bugs --comment`,
	Args: cobra.ExactArgs(1),
	RunE: runReviewPR,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewPRCmd.Flags().StringVarP(&prFocus, "focus", "f", "", "Focus area: general, security, performance, style, bugs")
	reviewPRCmd.Flags().BoolVar(&postComment, "comment", false, "Post the aggregated review as a PR comment")
	reviewPRCmd.Flags().BoolVar(&noCost, "no-cost", false, "Hide token and cost details")
	reviewPRCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")
	rootCmd.AddCommand(reviewPRCmd)
}

func runReviewPR(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	target := args[0]

	focus, err := core.ParseFocus(prFocus)
	if err != nil {
		return err
	}

	a, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := newEngine(ctx, a); err != nil {
		return err
	}

	titleColor.Println("Alfred - Pull Request Review")
	dimColor.Printf("   Target: %s (focus: %s)\n", target, focus)

	start := time.Now()
	pr, outcomes, err := a.engine.ReviewPR(ctx, target, focus)
	if err != nil {
		return fmt.Errorf("pull request review failed: %w", err)
	}
	if verbose {
		dimColor.Printf("   Elapsed: %s\n", time.Since(start).Round(time.Millisecond))
	}

	fmt.Println()
	boldColor.Printf("%s - %s\n", pr.Ref(), pr.Title)
	dimColor.Printf("%d files changed, +%d -%d\n", pr.FilesChanged, pr.Additions, pr.Deletions)

	var failed int
	var totalCost float64
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Println()
			errorColor.Printf("%s: %v\n", o.UnitID, o.Err)
			failed++
			continue
		}
		printEntry(o.Entry)
		if o.FailedOutright() {
			failed++
		}
		if o.Entry != nil {
			totalCost += o.Entry.Cost
		}
	}

	if !noCost && totalCost > 0 {
		dimColor.Printf("Total cost for this pull request: $%.4f\n", totalCost)
	}

	if postComment {
		body := review.FormatPRComment(pr, outcomes)
		if err := a.engine.PostComment(ctx, pr, body); err != nil {
			return fmt.Errorf("failed to post PR comment: %w", err)
		}
		successColor.Println("Posted review comment to the pull request.")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d units failed", failed, len(outcomes))
	}
	return nil
}
