package journal

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed ltwa.yml
var builtinLTWA []byte

// ErrAmbiguousWord is returned when a title word matches entries with
// different abbreviations.
var ErrAmbiguousWord = errors.New("ambiguous word in title")

// LTWAEntry is one row of a title word abbreviation table.
type LTWAEntry struct {
	Pattern string `yaml:"pattern"`
	Abbr    string `yaml:"abbr"`
}

// ltwaFile is the on-disk layout of an abbreviation table.
type ltwaFile struct {
	Stopwords []string    `yaml:"stopwords"`
	Words     []LTWAEntry `yaml:"words"`
}

// LTWA abbreviates journal titles word by word, ISO 4 style.
type LTWA struct {
	stopwords map[string]bool
	entries   []LTWAEntry
}

var (
	defaultLTWA     *LTWA
	defaultLTWAOnce sync.Once
)

// DefaultLTWA returns the table embedded in the binary.
func DefaultLTWA() *LTWA {
	defaultLTWAOnce.Do(func() {
		l, err := ParseLTWA(builtinLTWA)
		if err != nil {
			panic(fmt.Sprintf("journal: embedded ltwa.yml: %v", err))
		}
		defaultLTWA = l
	})
	return defaultLTWA
}

// LoadLTWA reads an abbreviation table from a YAML file.
func LoadLTWA(path string) (*LTWA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	l, err := ParseLTWA(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return l, nil
}

// ParseLTWA parses an abbreviation table.
func ParseLTWA(data []byte) (*LTWA, error) {
	var f ltwaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return NewLTWA(f.Words, f.Stopwords), nil
}

// NewLTWA builds a table from entries and stopwords. Patterns ending in "-"
// are stems; all matching is case-insensitive.
func NewLTWA(entries []LTWAEntry, stopwords []string) *LTWA {
	l := &LTWA{
		stopwords: make(map[string]bool, len(stopwords)),
		entries:   make([]LTWAEntry, 0, len(entries)),
	}
	for _, w := range stopwords {
		l.stopwords[strings.ToLower(w)] = true
	}
	for _, e := range entries {
		e.Pattern = strings.ToLower(strings.TrimSpace(e.Pattern))
		if e.Pattern == "" || e.Pattern == "-" {
			continue
		}
		l.entries = append(l.entries, e)
	}
	return l
}

// Abbreviate abbreviates a full journal title. Single-word titles are
// returned unchanged, stopwords are dropped (except in last position) and
// words without an entry are kept as written.
func (l *LTWA) Abbreviate(title string) (string, error) {
	words := strings.Fields(title)
	if len(words) <= 1 {
		return title, nil
	}

	out := make([]string, 0, len(words))
	for i, w := range words {
		w = strings.TrimRight(w, ",;:")
		if w == "" {
			continue
		}
		if i < len(words)-1 && l.stopwords[strings.ToLower(w)] {
			continue
		}

		parts := strings.Split(w, "/")
		for j, p := range parts {
			abbr, err := l.abbreviateWord(p)
			if err != nil {
				return "", err
			}
			parts[j] = abbr
		}
		out = append(out, strings.Join(parts, "/"))
	}

	if len(out) == 0 {
		return title, nil
	}
	return strings.Join(out, " "), nil
}

// abbreviateWord returns the abbreviation for the most specific matching
// entry. An exact match outranks a stem of the same length.
func (l *LTWA) abbreviateWord(word string) (string, error) {
	lower := strings.ToLower(word)

	best := -1
	var candidates []string
	for _, e := range l.entries {
		score := -1
		if stem, ok := strings.CutSuffix(e.Pattern, "-"); ok {
			if strings.HasPrefix(lower, stem) {
				score = 2 * len(stem)
			}
		} else if lower == e.Pattern {
			score = 2*len(e.Pattern) + 1
		}
		switch {
		case score < 0 || score < best:
			continue
		case score > best:
			best = score
			candidates = candidates[:0]
		}
		if !contains(candidates, e.Abbr) {
			candidates = append(candidates, e.Abbr)
		}
	}

	switch len(candidates) {
	case 0:
		return word, nil
	case 1:
		return candidates[0], nil
	default:
		return "", fmt.Errorf("%w: %q (%s)", ErrAmbiguousWord, word, strings.Join(candidates, ", "))
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
