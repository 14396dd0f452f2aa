// Package main provides the adsbib CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// verbose lowers the log level to debug
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "adsbib",
	Short: "Keep a BibTeX file in sync with an ADS library",
	Long: `adsbib polls a NASA ADS library (or a bibcode list, or the citations of a
.tex file), exports its records and merges them with a hand-maintained
BibTeX file into a single output bibliography. The output is rewritten
whenever either source changes.

Options can be stored per directory in adsbib.yml; flags override it.
All commands output JSON by default; use --human for readable output.

Environment Variables:
  ADS_API_TOKEN  ADS API token (optional; otherwise read from .ads-token or prompted)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	// Load .env file if present (for ADS_API_TOKEN)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log skipped cycles and other debug detail")
	rootCmd.Version = Version
}
