package ads

import (
	"strings"
	"unicode"

	"github.com/matsen/adsbib/internal/journal"
)

// BibcodeLength is the fixed length of an ADS bibcode (YYYYJJJJJVVVVMPPPPA).
// See https://ui.adsabs.harvard.edu/help/actions/bibcode
const BibcodeLength = 19

// Library is one snapshot of an ADS library.
type Library struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Bibcodes     []string `json:"bibcodes"`
	LastModified string   `json:"date_last_modified"`
}

// Export formats accepted as URL path segments by the export service.
// Anything else is sent to the "custom" endpoint as a format template.
var (
	TaggedFormats = []string{"ads", "bibtex", "bibtexabs", "endnote", "medlars", "procite", "refworks", "ris"}
	LaTeXFormats  = []string{"aastex", "icarus", "mnras", "soph"}
	XMLFormats    = []string{"dcxml", "refxml", "refabsxml", "rss", "votable"}
)

// CustomFormat is the export endpoint used for format templates.
const CustomFormat = "custom"

var knownFormats = func() map[string]bool {
	m := make(map[string]bool)
	for _, group := range [][]string{TaggedFormats, LaTeXFormats, XMLFormats} {
		for _, f := range group {
			m[f] = true
		}
	}
	return m
}()

// IsKnownFormat reports whether format is one of the named export formats.
func IsKnownFormat(format string) bool {
	return knownFormats[format]
}

// IsBibTeXFormat reports whether the export returns BibTeX entries.
func IsBibTeXFormat(format string) bool {
	return format == "bibtex" || format == "bibtexabs"
}

// ExportOptions controls an export request.
type ExportOptions struct {
	// Sort is passed through to ADS, e.g. "date asc".
	Sort string
	// Format is a named format or a custom format template.
	Format string
	// Journal selects how journal macros are rewritten.
	Journal journal.Convention
}

// DefaultExportOptions returns the options the command line starts from.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Sort:    "date asc",
		Format:  "bibtex",
		Journal: journal.Native,
	}
}

// endpoint returns the export path segment and, for custom formats, the
// template to send in the request body.
func (o ExportOptions) endpoint() (path, template string) {
	if IsKnownFormat(o.Format) {
		return o.Format, ""
	}
	return CustomFormat, o.Format
}

// LooksLikeBibcode reports whether s has the shape of an ADS bibcode:
// 19 characters starting with a four-digit year.
func LooksLikeBibcode(s string) bool {
	if len(s) != BibcodeLength {
		return false
	}
	for _, r := range s[:4] {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return !strings.ContainsAny(s, " \t\n,{}")
}
