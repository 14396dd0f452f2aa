// Package supplement reads the hand-maintained BibTeX file holding entries
// that ADS does not index.
package supplement

import (
	"os"
	"regexp"
	"slices"
	"strings"
)

// entryKeyRegex matches an entry header and captures its citation key.
// The capture is greedy up to the last comma on the line, so a header with
// fields on the same line yields more than the key.
var entryKeyRegex = regexp.MustCompile(`@\w+\{(.+),`)

// Set is the content of a supplemental file.
type Set struct {
	// Raw is the file content, byte for byte.
	Raw string
	// Keys are the citation keys of the entries, in file order.
	Keys []string
}

// Equal reports whether two sets have identical text and keys.
func (s Set) Equal(o Set) bool {
	return s.Raw == o.Raw && slices.Equal(s.Keys, o.Keys)
}

// Read loads a supplemental file. An empty path or an unreadable file
// yields the empty Set: running without supplemental entries is normal.
func Read(path string) Set {
	if path == "" {
		return Set{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}
	}
	return Parse(string(data))
}

// Parse extracts citation keys from raw BibTeX text. Keys are taken from
// the original text, comment lines included.
func Parse(raw string) Set {
	var keys []string
	for _, m := range entryKeyRegex.FindAllStringSubmatch(raw, -1) {
		keys = append(keys, m[1])
	}
	return Set{Raw: raw, Keys: keys}
}

// StripComments drops comment lines (first non-blank character '#' or '%')
// and blank lines.
func StripComments(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == '#' || trimmed[0] == '%' {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// ActiveKeys returns the keys of entries that survive StripComments.
func (s Set) ActiveKeys() []string {
	return Parse(StripComments(s.Raw)).Keys
}
