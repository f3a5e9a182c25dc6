package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/alfred-cli/alfred/internal/core"
)

var (
	reviewFocus string
	noCost      bool
	verbose     bool
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgWhite)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var reviewCmd = &cobra.Command{
	Use:   "review [file]",
	Short: "Run an AI code review for a local source file",
	Long: `Run an AI code review for a local source file.

The review command reads the file, submits it to the configured LLM backend,
records the result in the review history, and debits the cost from the
balance.

Examples:
  alfred review main.go
  alfred review --focus security internal/auth/token.go`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().StringVarP(&reviewFocus, "focus", "f", "", "Focus area: general, security, performance, style, bugs")
	reviewCmd.Flags().BoolVar(&noCost, "no-cost", false, "Hide token and cost details")
	reviewCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	focus, err := core.ParseFocus(reviewFocus)
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

	titleColor.Println("Alfred - Code Review")
	dimColor.Printf("   Target: %s (focus: %s)\n", path, focus)

	start := time.Now()
	entry, err := a.engine.ReviewFile(ctx, path, focus)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}
	if verbose {
		dimColor.Printf("   Elapsed: %s\n", time.Since(start).Round(time.Millisecond))
	}

	printEntry(entry)
	if entry.Status == core.StatusBudgetRejected {
		return fmt.Errorf("review rejected: balance is at or below the configured minimum")
	}
	return nil
}

// printEntry renders one recorded review result to the terminal.
func printEntry(e *core.HistoryEntry) {
	separator := strings.Repeat("=", 60)
	thinSeparator := strings.Repeat("-", 60)

	switch e.Status {
	case core.StatusBudgetRejected:
		fmt.Println()
		errorColor.Println("Budget rejected: insufficient balance for a new review.")
		dimColor.Println("Top up with: alfred balance set <amount>")
		return
	case core.StatusBackendError:
		fmt.Println()
		errorColor.Printf("Backend error after retries: %s\n", e.LastError)
		dimColor.Printf("Recorded as review #%d (no charge applied).\n", e.Ordinal)
		return
	}

	fmt.Println()
	titleColor.Println(separator)
	titleColor.Println("REVIEW SUMMARY")
	titleColor.Println(separator)
	fmt.Println()
	infoColor.Println(e.Summary)

	if e.Unstructured {
		fmt.Println()
		warnColor.Println("Note: the backend response did not follow the expected format; showing raw output.")
	}

	if len(e.Findings) == 0 && !e.Unstructured {
		fmt.Println()
		successColor.Println("No issues found!")
	} else if len(e.Findings) > 0 {
		fmt.Println()
		warnColor.Println(thinSeparator)
		warnColor.Printf("SUGGESTIONS (%d)\n", len(e.Findings))
		warnColor.Println(thinSeparator)

		for i, f := range e.Findings {
			fmt.Println()
			printSeverityBadge(f.Severity)
			boldColor.Printf(" %s", f.FilePath)
			dimColor.Printf(":%d\n", f.Line)
			if f.Category != "" {
				dimColor.Printf("   Category: %s\n", f.Category)
			}
			fmt.Println()
			infoColor.Printf("%s\n", f.Comment)
			if i < len(e.Findings)-1 {
				fmt.Println()
				dimColor.Println(strings.Repeat("-", 40))
			}
		}
	}

	if e.Score > 0 {
		fmt.Println()
		boldColor.Printf("Overall score: %d/10\n", e.Score)
	}

	if !noCost {
		fmt.Println()
		dimColor.Println(thinSeparator)
		estimated := ""
		if e.TokensEstimated {
			estimated = " (estimated)"
		}
		dimColor.Printf("Review #%d | model %s | %d in / %d out tokens%s | $%.4f\n",
			e.Ordinal, e.Model, e.InputTokens, e.OutputTokens, estimated, e.Cost)
	}
	fmt.Println()
}

func printSeverityBadge(severity string) {
	switch severity {
	case "Critical":
		color.New(color.BgRed, color.FgWhite, color.Bold).Printf(" %s ", severity)
	case "High":
		color.New(color.BgHiRed, color.FgWhite).Printf(" %s ", severity)
	case "Medium":
		color.New(color.BgYellow, color.FgBlack).Printf(" %s ", severity)
	case "Low":
		color.New(color.BgGreen, color.FgWhite).Printf(" %s ", severity)
	default:
		color.New(color.BgWhite, color.FgBlack).Printf(" %s ", severity)
	}
}
