// Package reconcile runs the poll, compare and rewrite loop that keeps the
// output bibliography in step with an ADS collection and a supplemental
// BibTeX file.
//
// A Reconciler holds the baseline of the last successful write: the
// collection snapshot, the supplemental file content and the remote export
// text. Each Step polls both sources and rewrites the output only when
// either differs from the baseline. Transient failures skip the cycle and
// leave the baseline untouched, so the next cycle retries the same change.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/matsen/adsbib/internal/ads"
	"github.com/matsen/adsbib/internal/export"
	"github.com/matsen/adsbib/internal/journal"
	"github.com/matsen/adsbib/internal/source"
	"github.com/matsen/adsbib/internal/supplement"
)

// State is the loop's current phase.
type State int

const (
	Initializing State = iota
	Polling
	Reconciling
	Writing
	Idle
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Polling:
		return "polling"
	case Reconciling:
		return "reconciling"
	case Writing:
		return "writing"
	case Idle:
		return "idle"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StepError records the phase in which a fatal error occurred.
type StepError struct {
	Step State
	Err  error
}

func (e *StepError) Error() string {
	return e.Step.String() + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ErrNotInitialized is returned by Step before Init has succeeded.
var ErrNotInitialized = errors.New("reconciler not initialized")

// Exporter fetches formatted records for a set of bibcodes.
type Exporter interface {
	Export(ctx context.Context, bibcodes []string, opts ads.ExportOptions) (string, error)
}

// Transformer rewrites journal names in supplemental text.
type Transformer interface {
	Transform(text string, conv journal.Convention) (string, error)
}

// Reporter is told about every write.
type Reporter interface {
	Report(c Change)
}

// Recorder persists every write.
type Recorder interface {
	Record(ctx context.Context, c Change) error
}

// Options configures a Reconciler.
type Options struct {
	// Output is the merged bibliography path.
	Output string
	// Supplement is the supplemental BibTeX path; empty means none.
	Supplement string
	// Export selects sort, format and journal convention.
	Export ads.ExportOptions
	// RawOutput, if set, receives a second export in RawFormat.
	RawOutput string
	RawFormat string
	// AddAsIs writes supplemental text without journal transformation.
	AddAsIs bool

	// Interval between cycles. Default: 5s.
	Interval time.Duration
	// MaxIterations bounds Run; 0 means until ctx is cancelled.
	MaxIterations int
	// InfoInterval is the number of iterations between progress logs;
	// 0 disables them.
	InfoInterval int

	Logger      *slog.Logger
	Transformer Transformer
	Reporter    Reporter
	Recorder    Recorder
	// Sleep waits between cycles. Default honours ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Transformer == nil {
		o.Transformer = journal.NewTransformer(nil)
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
}

// baseline is the state as of the last successful write.
type baseline struct {
	snapshot   source.Snapshot
	supplement supplement.Set
	remote     string
}

// Reconciler owns the baseline and drives the loop. It is not safe for
// concurrent use.
type Reconciler struct {
	source   source.Snapshotter
	exporter Exporter
	opts     Options

	state       State
	base        baseline
	initialized bool
}

// Result describes one Step.
type Result struct {
	// Skipped is set when a transient failure ended the cycle early.
	Skipped bool
	// Change is non-nil when the output was rewritten.
	Change *Change
}

// New creates a Reconciler. Call Init before Step, or use Run.
func New(src source.Snapshotter, exp Exporter, opts Options) *Reconciler {
	opts.defaults()
	return &Reconciler{source: src, exporter: exp, opts: opts, state: Initializing}
}

// State returns the current phase.
func (r *Reconciler) State() State { return r.state }

// Init takes the first snapshot and writes the output unconditionally.
// Every error is fatal: there is no baseline to fall back on.
func (r *Reconciler) Init(ctx context.Context) (*Change, error) {
	r.state = Initializing
	snap, err := r.source.Snapshot(ctx)
	if err != nil {
		return nil, &StepError{Step: Initializing, Err: err}
	}
	supp := supplement.Read(r.opts.Supplement)

	change, err := r.write(ctx, snap, supp, true, true, true)
	if err != nil {
		return nil, &StepError{Step: Initializing, Err: err}
	}
	r.initialized = true
	r.state = Idle
	return change, nil
}

// Step runs one poll cycle.
func (r *Reconciler) Step(ctx context.Context) (Result, error) {
	if !r.initialized {
		return Result{}, ErrNotInitialized
	}
	log := r.opts.Logger
	defer func() { r.state = Idle }()

	r.state = Polling
	snap, err := r.source.Snapshot(ctx)
	if err != nil {
		if ads.IsTransient(err) {
			log.Debug("poll skipped", "error", err)
			return Result{Skipped: true}, nil
		}
		return Result{}, &StepError{Step: Polling, Err: err}
	}
	supp := supplement.Read(r.opts.Supplement)

	r.state = Reconciling
	collectionChanged := snap.LastModified != r.base.snapshot.LastModified
	supplementChanged := !supp.Equal(r.base.supplement)
	if !collectionChanged && !supplementChanged {
		return Result{}, nil
	}

	r.state = Writing
	change, err := r.write(ctx, snap, supp, collectionChanged, supplementChanged, false)
	if err != nil {
		if ads.IsTransient(err) {
			log.Debug("write skipped", "error", err)
			return Result{Skipped: true}, nil
		}
		return Result{}, &StepError{Step: Writing, Err: err}
	}
	return Result{Change: change}, nil
}

// write exports, merges and writes the output, then advances the baseline.
// Nothing is written and the baseline is unchanged if any export fails.
func (r *Reconciler) write(ctx context.Context, snap source.Snapshot, supp supplement.Set, collectionChanged, supplementChanged, initial bool) (*Change, error) {
	log := r.opts.Logger

	remote := r.base.remote
	var raw string
	if collectionChanged {
		var err error
		remote, err = r.export(ctx, snap.Bibcodes, r.opts.Export)
		if err != nil {
			return nil, err
		}
		if r.opts.RawOutput != "" {
			raw, err = r.export(ctx, snap.Bibcodes, ads.ExportOptions{
				Sort:    r.opts.Export.Sort,
				Format:  r.opts.RawFormat,
				Journal: journal.Native,
			})
			if err != nil {
				return nil, err
			}
		}
		if ads.IsBibTeXFormat(r.opts.Export.Format) {
			if missing := export.MissingKeys(snap.Bibcodes, remote); len(missing) > 0 {
				log.Warn("bibcodes missing from export", "count", len(missing), "bibcodes", missing)
			}
		}
	}

	suppText := supp.Raw
	if !r.opts.AddAsIs && suppText != "" {
		var err error
		suppText, err = r.opts.Transformer.Transform(suppText, r.opts.Export.Journal)
		if err != nil {
			return nil, fmt.Errorf("transforming supplemental entries: %w", err)
		}
	}
	if supplementChanged && r.opts.Supplement != "" {
		log.Info("supplemental entries", "path", r.opts.Supplement,
			"entries", len(supp.Keys), "active", len(supp.ActiveKeys()))
	}

	if err := export.WriteFileAtomic(r.opts.Output, export.Merge(remote, suppText)); err != nil {
		return nil, fmt.Errorf("writing output: %w", err)
	}
	if collectionChanged && r.opts.RawOutput != "" {
		if err := export.WriteFileAtomic(r.opts.RawOutput, raw); err != nil {
			return nil, fmt.Errorf("writing raw output: %w", err)
		}
	}

	added, removed := Diff(r.base.snapshot.Bibcodes, snap.Bibcodes)
	suppAdded, suppRemoved := Diff(r.base.supplement.Keys, supp.Keys)
	change := &Change{
		Time:              time.Now().UTC(),
		Source:            snap.Name,
		LastModified:      snap.LastModified,
		Output:            r.opts.Output,
		Total:             len(snap.Bibcodes),
		Added:             added,
		Removed:           removed,
		SupplementKeys:    supp.Keys,
		SupplementAdded:   suppAdded,
		SupplementRemoved: suppRemoved,
		CollectionChanged: collectionChanged,
		SupplementChanged: supplementChanged,
		Initial:           initial,
	}
	r.base = baseline{snapshot: snap, supplement: supp, remote: remote}

	log.Info("wrote output", "path", r.opts.Output, "source", snap.Name,
		"total", change.Total, "added", len(added), "removed", len(removed))
	if r.opts.Reporter != nil {
		r.opts.Reporter.Report(*change)
	}
	if r.opts.Recorder != nil {
		if err := r.opts.Recorder.Record(ctx, *change); err != nil {
			log.Warn("recording history failed", "error", err)
		}
	}
	return change, nil
}

// export returns "" without a request for an empty collection.
func (r *Reconciler) export(ctx context.Context, bibcodes []string, opts ads.ExportOptions) (string, error) {
	if len(bibcodes) == 0 {
		return "", nil
	}
	return r.exporter.Export(ctx, bibcodes, opts)
}

// Run initializes if needed, then steps every Interval until MaxIterations
// cycles have run or ctx is cancelled. Cancellation is not an error.
func (r *Reconciler) Run(ctx context.Context) error {
	log := r.opts.Logger
	if !r.initialized {
		if _, err := r.Init(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}

	for i := 1; r.opts.MaxIterations == 0 || i <= r.opts.MaxIterations; i++ {
		if err := r.opts.Sleep(ctx, r.opts.Interval); err != nil {
			log.Info("stopped", "iterations", i-1)
			return nil
		}
		if _, err := r.Step(ctx); err != nil {
			if ctx.Err() != nil {
				log.Info("stopped", "iterations", i-1)
				return nil
			}
			return err
		}
		if r.opts.InfoInterval > 0 && i%r.opts.InfoInterval == 0 {
			log.Info("iteration progress", "iteration", i, "max", r.opts.MaxIterations,
				"bibcodes", len(r.base.snapshot.Bibcodes), "time", time.Now().Format(time.DateTime))
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
