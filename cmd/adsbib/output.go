package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matsen/adsbib/internal/ads"
	"github.com/matsen/adsbib/internal/config"
	"github.com/matsen/adsbib/internal/credential"
	"github.com/matsen/adsbib/internal/journal"
	"github.com/matsen/adsbib/internal/reconcile"
	"github.com/matsen/adsbib/internal/source"
)

// bannerWidth matches a standard terminal.
const bannerWidth = 80

var (
	bannerStyle  = lipgloss.NewStyle().Bold(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")) // Green
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")) // Red
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")) // Gray
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Step  string `json:"step,omitempty"`
}

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, credential.ErrMissingCredential):
		return ExitMissingCredential
	case errors.Is(err, ads.ErrAuth):
		return ExitAuthError
	case errors.Is(err, ads.ErrProtocol):
		return ExitProtocolError
	case errors.Is(err, journal.ErrTransform):
		return ExitTransformError
	case errors.Is(err, config.ErrInvalid),
		errors.Is(err, journal.ErrInvalidArgument),
		errors.Is(err, ads.ErrInvalidArgument),
		errors.Is(err, source.ErrUnknownKind):
		return ExitConfigError
	default:
		return ExitError
	}
}

// describeError splits err into the failing step and its cause. A
// reconcile.StepError names its own step; otherwise step is used.
func describeError(step string, err error) ErrorResponse {
	var stepErr *reconcile.StepError
	if errors.As(err, &stepErr) {
		return ErrorResponse{Error: stepErr.Err.Error(), Step: stepErr.Step.String()}
	}
	return ErrorResponse{Error: err.Error(), Step: step}
}

// exitWithError outputs an error in the appropriate format (human or JSON)
// and exits with the code mapped from err.
func exitWithError(step string, err error) {
	resp := describeError(step, err)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s: %s\n", resp.Step, resp.Error)
	} else {
		outputJSON(resp)
	}
	os.Exit(exitCodeFor(err))
}

// jsonReporter prints each change as a JSON document.
type jsonReporter struct {
	w io.Writer
}

func (r *jsonReporter) Report(c reconcile.Change) {
	writeJSON(r.w, c)
}

// humanReporter prints each change as a colored banner with the added and
// removed bibcodes.
type humanReporter struct {
	w io.Writer
}

func (r *humanReporter) Report(c reconcile.Change) {
	fmt.Fprintln(r.w, renderChange(c))
}

func newReporter(w io.Writer) reconcile.Reporter {
	if humanOutput {
		return &humanReporter{w: w}
	}
	return &jsonReporter{w: w}
}

// renderChange formats a change for the terminal.
func renderChange(c reconcile.Change) string {
	title := " " + c.Source + " changed "
	if c.Initial {
		title = " " + c.Source + " "
	}
	var b strings.Builder
	b.WriteString(bannerStyle.Render(lipgloss.PlaceHorizontal(bannerWidth, lipgloss.Center, title,
		lipgloss.WithWhitespaceChars("="))))
	b.WriteString("\n")
	fmt.Fprintf(&b, "N = %d ", c.Total)
	b.WriteString(mutedStyle.Render(fmt.Sprintf("(wrote %s at %s)", c.Output, c.Time.Local().Format("15:04:05"))))
	if len(c.Added) > 0 {
		b.WriteString("\n")
		b.WriteString(addedStyle.Render(fmt.Sprintf(" +%d: %s", len(c.Added), strings.Join(c.Added, ", "))))
	}
	if len(c.Removed) > 0 {
		b.WriteString("\n")
		b.WriteString(removedStyle.Render(fmt.Sprintf(" -%d: %s", len(c.Removed), strings.Join(c.Removed, ", "))))
	}
	if len(c.SupplementAdded) > 0 && !c.Initial {
		b.WriteString("\n")
		b.WriteString(addedStyle.Render(fmt.Sprintf(" +%d supplemental: %s", len(c.SupplementAdded), strings.Join(c.SupplementAdded, ", "))))
	}
	if len(c.SupplementRemoved) > 0 {
		b.WriteString("\n")
		b.WriteString(removedStyle.Render(fmt.Sprintf(" -%d supplemental: %s", len(c.SupplementRemoved), strings.Join(c.SupplementRemoved, ", "))))
	}
	return b.String()
}
