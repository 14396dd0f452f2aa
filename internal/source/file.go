package source

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/matsen/adsbib/internal/ads"
)

// BibcodeFile snapshots a plain-text list of bibcodes. Entries may be
// separated by newlines or commas; '#' and '%' start a comment.
type BibcodeFile struct {
	Path string
}

// Snapshot reads the file. A read failure is transient: editors often
// replace the file while saving.
func (f *BibcodeFile) Snapshot(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: reading %s: %v", ads.ErrTransient, f.Path, err)
	}
	bibcodes := ParseBibcodeList(string(data))
	return Snapshot{
		Bibcodes:     bibcodes,
		LastModified: fingerprint([]byte(strings.Join(bibcodes, "\n"))),
		Name:         "Bibcode file: " + f.Path,
	}, nil
}

// ParseBibcodeList extracts bibcodes in file order, dropping duplicates.
func ParseBibcodeList(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		if i := strings.IndexAny(line, "#%"); i >= 0 {
			line = line[:i]
		}
		for _, field := range strings.Split(line, ",") {
			code := strings.TrimSpace(field)
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}

// TeX snapshots the bibcode-shaped citation keys of a LaTeX document.
type TeX struct {
	Path string
}

// citeRegex matches \cite, \citep, \nocite and \nocitep with optional
// bracketed arguments, capturing the key list.
var citeRegex = regexp.MustCompile(`\\(?:no)?citep?(?:\[[^\]]*\])*\{([^{}]+)\}`)

// Snapshot reads the document. Like BibcodeFile, read failures are transient.
func (t *TeX) Snapshot(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: reading %s: %v", ads.ErrTransient, t.Path, err)
	}
	keys := ExtractCiteKeys(string(data))
	return Snapshot{
		Bibcodes:     keys,
		LastModified: fingerprint([]byte(strings.Join(keys, "\n"))),
		Name:         "TeX: " + t.Path,
	}, nil
}

// ExtractCiteKeys returns the cited keys that look like ADS bibcodes, in
// order of first citation. Commented-out text and \nocite{*} are ignored.
func ExtractCiteKeys(tex string) []string {
	var out []string
	seen := make(map[string]bool)
	lines := strings.Split(tex, "\n")
	for i, line := range lines {
		lines[i] = stripTeXComment(line)
	}
	// Key lists may span lines.
	for _, m := range citeRegex.FindAllStringSubmatch(strings.Join(lines, "\n"), -1) {
		if strings.HasPrefix(m[1], "*") {
			continue
		}
		for _, key := range strings.Split(m[1], ",") {
			key = strings.TrimSpace(key)
			if !ads.LooksLikeBibcode(key) || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// stripTeXComment cuts line at the first unescaped '%'.
func stripTeXComment(line string) string {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '%':
			return line[:i]
		}
	}
	return line
}
