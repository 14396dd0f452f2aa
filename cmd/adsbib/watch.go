package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchFlags runFlags

func init() {
	addRunFlags(watchCmd, &watchFlags)
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [library-id | bibcode-file | tex-file]",
	Short: "Poll the collection and rewrite the output when it changes",
	Long: `Write the output once, then poll the collection and the additional file
every --interval. The output is rewritten only when either one changes.
Temporary ADS outages skip a cycle; other errors stop the loop.

The collection may be an ADS library id (recommended), a text file of
bibcodes, or a .tex file whose bibcode-shaped citation keys are used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := resolveProfile(cmd, args, &watchFlags)
	if err != nil {
		exitWithError("configuration", err)
	}
	s, step, err := setup(ctx, p, watchFlags.tokenFile)
	if err != nil {
		exitWithError(step, err)
	}
	defer s.Close()

	if err := s.reconciler.Run(ctx); err != nil {
		s.Close()
		exitWithError("watch", err)
	}
	return nil
}
