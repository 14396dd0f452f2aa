package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matsen/adsbib/internal/ads"
)

var syncFlags runFlags

func init() {
	addRunFlags(syncCmd, &syncFlags)
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync [library-id | bibcode-file | tex-file]",
	Short: "Fetch, merge and write the output once",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := resolveProfile(cmd, args, &syncFlags)
	if err != nil {
		exitWithError("configuration", err)
	}
	s, step, err := setup(ctx, p, syncFlags.tokenFile)
	if err != nil {
		exitWithError(step, err)
	}
	defer s.Close()

	if _, err := s.reconciler.Init(ctx); err != nil {
		if ads.IsCanceled(err) {
			return nil
		}
		s.Close()
		exitWithError("sync", err)
	}
	return nil
}
