package export

import (
	"bufio"
	"regexp"
	"strings"
)

// entryStartRegex matches an entry header: @type{key,
var entryStartRegex = regexp.MustCompile(`@\w+\{([^,]+),`)

// EntryKeys returns the citation keys of the BibTeX entries in text, in
// order of appearance.
func EntryKeys(text string) []string {
	var keys []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if m := entryStartRegex.FindStringSubmatch(scanner.Text()); len(m) > 1 {
			keys = append(keys, strings.TrimSpace(m[1]))
		}
	}
	return keys
}

// MissingKeys returns the bibcodes with no entry in text. ADS silently
// drops bibcodes it cannot resolve, so this is how they surface.
func MissingKeys(bibcodes []string, text string) []string {
	present := make(map[string]bool)
	for _, k := range EntryKeys(text) {
		present[k] = true
	}
	var missing []string
	for _, b := range bibcodes {
		if !present[b] {
			missing = append(missing, b)
		}
	}
	return missing
}
