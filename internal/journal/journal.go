// Package journal rewrites journal names in exported bibliography text.
//
// ADS writes journal fields as LaTeX macros (\apj, \mnras, ...) that only
// resolve under AAS-style document classes. A Transformer keeps them, expands
// them to full names, or expands and then abbreviates them ISO 4 style.
package journal

import (
	"errors"
	"fmt"
	"strings"
)

// Convention selects how journal names are written.
type Convention string

const (
	// Native keeps the ADS macros untouched.
	Native Convention = "native"
	// Expanded replaces macros with full journal names.
	Expanded Convention = "expanded"
	// ISO4 expands macros and then abbreviates each journal field.
	ISO4 Convention = "standardized-abbreviation"
)

// conventionAliases maps the command-line spellings onto conventions.
var conventionAliases = map[string]Convention{
	"native":                    Native,
	"ads":                       Native,
	"expanded":                  Expanded,
	"full":                      Expanded,
	"standardized-abbreviation": ISO4,
	"iso4":                      ISO4,
}

var (
	// ErrInvalidArgument indicates an unknown convention.
	ErrInvalidArgument = errors.New("invalid journal convention")

	// ErrTransform indicates a journal name could not be transformed.
	ErrTransform = errors.New("journal name transformation failed")
)

// ParseConvention resolves a convention name or alias (ads, full, iso4).
func ParseConvention(s string) (Convention, error) {
	if c, ok := conventionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q (valid: ads, full, iso4)", ErrInvalidArgument, s)
}

// Abbreviator shortens a full journal title.
type Abbreviator interface {
	Abbreviate(title string) (string, error)
}

// Transformer applies a Convention to exported text.
type Transformer struct {
	abbrev Abbreviator
}

// NewTransformer creates a Transformer. A nil abbreviator selects the
// built-in LTWA table.
func NewTransformer(abbrev Abbreviator) *Transformer {
	if abbrev == nil {
		abbrev = DefaultLTWA()
	}
	return &Transformer{abbrev: abbrev}
}

// Transform rewrites text according to conv. Partially transformed text is
// never returned: on error the result is empty.
func (t *Transformer) Transform(text string, conv Convention) (string, error) {
	switch conv {
	case Native:
		return text, nil
	case Expanded:
		return ExpandMacros(text), nil
	case ISO4:
		return t.abbreviateFields(ExpandMacros(text))
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidArgument, string(conv))
	}
}

// abbreviateFields abbreviates the value of every `journal = {...}` line.
func (t *Transformer) abbreviateFields(text string) (string, error) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "journal") {
			continue
		}
		open := strings.Index(line, "{")
		if open < 0 {
			continue
		}
		rest := line[open+1:]
		end := strings.Index(rest, "}")
		if end < 0 {
			continue
		}
		full := rest[:end]
		abbr, err := t.abbrev.Abbreviate(full)
		if err != nil {
			return "", fmt.Errorf("%w: journal %q: %v", ErrTransform, full, err)
		}
		lines[i] = line[:open+1] + abbr + rest[end:]
	}
	return strings.Join(lines, "\n"), nil
}

// Transform applies conv using the built-in LTWA table.
func Transform(text string, conv Convention) (string, error) {
	return NewTransformer(nil).Transform(text, conv)
}
