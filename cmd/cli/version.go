package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfred-cli/alfred/internal/config"
	"github.com/alfred-cli/alfred/internal/pricing"
)

// version is set at build time via -ldflags.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and effective configuration",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		boldColor.Printf("alfred %s\n", version)
		fmt.Printf("Model:        %s\n", cfg.Model)
		fmt.Printf("API key:      %s\n", cfg.MaskedAPIKey())
		fmt.Printf("Data dir:     %s\n", cfg.DataDir)
		fmt.Printf("Min balance:  $%.4f\n", cfg.MinBalance)
		fmt.Printf("Max retries:  %d\n", cfg.MaxRetries)

		models := pricing.Models()
		fmt.Println("Priced models:")
		for _, m := range models {
			marker := " "
			if m == cfg.Model {
				marker = "*"
			}
			fmt.Printf("  %s %s\n", marker, m)
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(versionCmd)
}
