package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/adsbib/internal/config"
	"github.com/matsen/adsbib/internal/history"
)

var (
	historyDB      string
	historyLimit   int
	historyProfile string
)

func init() {
	historyCmd.Flags().StringVar(&historyDB, "db", "", "History database (default: history from the watch profile)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Number of writes to show (0 = all)")
	historyCmd.Flags().StringVar(&historyProfile, "profile", config.ProfileFile, "Watch profile naming the database")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded writes, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

// HistoryResponse is the response for the history command.
type HistoryResponse struct {
	Path    string          `json:"path"`
	Entries []history.Entry `json:"entries"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := historyDB
	if path == "" {
		p, err := config.LoadProfile(historyProfile)
		if err != nil {
			exitWithError("configuration", err)
		}
		path = p.History
	}
	if path == "" {
		exitWithError("configuration", fmt.Errorf("%w: no history database (use --db or set history in %s)",
			config.ErrInvalid, historyProfile))
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		exitWithError("history", fmt.Errorf("history database %s does not exist", path))
	}

	db, err := history.Open(path)
	if err != nil {
		exitWithError("history", err)
	}
	defer db.Close()

	entries, err := db.List(context.Background(), historyLimit)
	if err != nil {
		db.Close()
		exitWithError("history", err)
	}

	if !humanOutput {
		if entries == nil {
			entries = []history.Entry{}
		}
		outputJSON(HistoryResponse{Path: path, Entries: entries})
		return nil
	}

	if len(entries) == 0 {
		outputHuman("No writes recorded in %s\n", path)
		return nil
	}
	for _, e := range entries {
		outputHuman("%s  %s  N=%d  +%d -%d  %s\n",
			e.Time.Local().Format("2006-01-02 15:04:05"), e.Source, e.Total, len(e.Added), len(e.Removed), e.Output)
		if len(e.Added) > 0 {
			outputHuman("    + %s\n", strings.Join(e.Added, ", "))
		}
		if len(e.Removed) > 0 {
			outputHuman("    - %s\n", strings.Join(e.Removed, ", "))
		}
	}
	return nil
}
