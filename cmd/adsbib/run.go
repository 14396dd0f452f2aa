package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matsen/adsbib/internal/ads"
	"github.com/matsen/adsbib/internal/config"
	"github.com/matsen/adsbib/internal/credential"
	"github.com/matsen/adsbib/internal/history"
	"github.com/matsen/adsbib/internal/journal"
	"github.com/matsen/adsbib/internal/reconcile"
	"github.com/matsen/adsbib/internal/source"
)

// runFlags are the options shared by watch and sync.
type runFlags struct {
	profile      string
	tokenFile    string
	source       string
	additional   string
	output       string
	rawFile      string
	rawFormat    string
	sort         string
	format       string
	journal      string
	history      string
	interval     time.Duration
	iterations   int
	infoInterval int
	addAsIs      bool
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.profile, "profile", config.ProfileFile, "Watch profile to read defaults from")
	fl.StringVar(&f.tokenFile, "token-file", credential.DefaultPath, "File holding the ADS API token")
	fl.StringVar(&f.source, "source", string(source.KindAuto), "Collection kind: auto, library, file, tex")
	fl.StringVarP(&f.additional, "additional-file", "a", "", "BibTeX file with entries not in ADS")
	fl.StringVarP(&f.output, "output", "o", config.DefaultOutput, "Output BibTeX file")
	fl.StringVarP(&f.rawFile, "raw-file", "r", "", "Also write the bibcodes in --raw-format to this file")
	fl.StringVarP(&f.rawFormat, "raw-format", "F", config.DefaultRawFormat, "ADS export format for --raw-file")
	fl.StringVarP(&f.sort, "sort", "s", config.DefaultSort, "ADS sort option")
	fl.StringVarP(&f.format, "format", "f", config.DefaultFormat,
		"ADS export format (bibtex, aastex, ris, ...); any other string is a custom format")
	fl.StringVarP(&f.journal, "journal", "j", config.DefaultJournal, "Journal names: ads, full, iso4")
	fl.StringVar(&f.history, "history", "", "SQLite database recording every write")
	fl.DurationVarP(&f.interval, "interval", "t", config.DefaultInterval, "Time between polls")
	fl.IntVarP(&f.iterations, "iterations", "n", config.DefaultIterations, "Number of polls (0 = until interrupted)")
	fl.IntVarP(&f.infoInterval, "info-interval", "i", config.DefaultInfoInterval, "Polls between progress logs (0 = never)")
	fl.BoolVar(&f.addAsIs, "add-as-is", false, "Write the additional file without journal name changes")
}

// resolveProfile layers defaults, the profile file, the positional
// collection argument and explicitly set flags, in that order.
func resolveProfile(cmd *cobra.Command, args []string, f *runFlags) (config.Profile, error) {
	p, err := config.LoadProfile(f.profile)
	if err != nil {
		return p, err
	}
	if len(args) > 0 {
		p.Collection = args[0]
	}

	changed := cmd.Flags().Changed
	if changed("source") {
		p.Source = f.source
	}
	if changed("additional-file") {
		p.AdditionalFile = f.additional
	}
	if changed("output") {
		p.Output = f.output
	}
	if changed("raw-file") {
		p.RawFile = f.rawFile
	}
	if changed("raw-format") {
		p.RawFormat = f.rawFormat
	}
	if changed("sort") {
		p.Sort = f.sort
	}
	if changed("format") {
		p.Format = f.format
	}
	if changed("journal") {
		p.Journal = f.journal
	}
	if changed("history") {
		p.History = f.history
	}
	if changed("interval") {
		p.Interval = config.Duration(f.interval)
	}
	if changed("iterations") {
		p.Iterations = f.iterations
	}
	if changed("info-interval") {
		p.InfoInterval = f.infoInterval
	}
	if changed("add-as-is") {
		p.AddAsIs = f.addAsIs
	}
	return p, nil
}

// session holds everything a run needs; Close releases it.
type session struct {
	reconciler *reconcile.Reconciler
	history    *history.DB
}

func (s *session) Close() {
	if s.history != nil {
		s.history.Close()
	}
}

// newTokenStore builds the credential store. The prompt is only offered
// when stdin is a terminal.
func newTokenStore(path string) *credential.Store {
	return &credential.Store{
		Path:   path,
		Lookup: config.LookupToken,
		Prompter: &credential.TerminalPrompter{
			In:          os.Stdin,
			Out:         os.Stderr,
			Interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
		},
	}
}

// newTransformer honours ltwa_path from the global config.
func newTransformer(global *config.GlobalConfig) (*journal.Transformer, error) {
	if global.LTWAPath == "" {
		return journal.NewTransformer(nil), nil
	}
	table, err := journal.LoadLTWA(global.LTWAPath)
	if err != nil {
		return nil, err
	}
	return journal.NewTransformer(table), nil
}

// setup validates the profile, obtains the token and wires the reconciler.
// It returns the name of the failing step with any error.
func setup(ctx context.Context, p config.Profile, tokenFile string) (*session, string, error) {
	conv, err := p.Validate()
	if err != nil {
		return nil, "configuration", err
	}
	global, err := config.LoadGlobalConfig()
	if err != nil {
		return nil, "configuration", err
	}
	transformer, err := newTransformer(global)
	if err != nil {
		return nil, "configuration", err
	}

	token, err := newTokenStore(tokenFile).Obtain(ctx)
	if err != nil {
		return nil, "credential", err
	}

	clientOpts := []ads.ClientOption{ads.WithTransformer(transformer)}
	if global.ADSBaseURL != "" {
		clientOpts = append(clientOpts, ads.WithBaseURL(global.ADSBaseURL))
	}
	client := ads.NewClient(token, clientOpts...)

	kind, _ := source.ParseKind(p.Source)
	src, err := source.New(kind, p.Collection, client)
	if err != nil {
		return nil, "configuration", err
	}

	s := &session{}
	opts := reconcile.Options{
		Output:     p.Output,
		Supplement: p.AdditionalFile,
		Export: ads.ExportOptions{
			Sort:    p.Sort,
			Format:  p.Format,
			Journal: conv,
		},
		RawOutput:     p.RawFile,
		RawFormat:     p.RawFormat,
		AddAsIs:       p.AddAsIs,
		Interval:      time.Duration(p.Interval),
		MaxIterations: p.Iterations,
		InfoInterval:  p.InfoInterval,
		Logger:        slog.Default(),
		Transformer:   transformer,
		Reporter:      newReporter(os.Stdout),
	}
	if p.History != "" {
		db, err := history.Open(p.History)
		if err != nil {
			return nil, "history", err
		}
		s.history = db
		opts.Recorder = db
	}
	s.reconciler = reconcile.New(src, client, opts)
	return s, "", nil
}
