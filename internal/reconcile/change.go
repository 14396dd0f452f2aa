package reconcile

import "time"

// Change describes one write of the output.
type Change struct {
	Time         time.Time `json:"time"`
	Source       string    `json:"source"`
	LastModified string    `json:"last_modified"`
	Output       string    `json:"output"`
	Total        int       `json:"total"`
	Added        []string  `json:"added"`
	Removed      []string  `json:"removed"`
	// SupplementKeys are the citation keys of the supplemental entries.
	SupplementKeys    []string `json:"supplement_keys,omitempty"`
	SupplementAdded   []string `json:"supplement_added,omitempty"`
	SupplementRemoved []string `json:"supplement_removed,omitempty"`
	CollectionChanged bool     `json:"collection_changed"`
	SupplementChanged bool     `json:"supplement_changed"`
	Initial           bool     `json:"initial,omitempty"`
}

// Diff returns the bibcodes added in next, in next's order, and those
// removed from prev, in prev's order.
func Diff(prev, next []string) (added, removed []string) {
	inPrev := make(map[string]bool, len(prev))
	for _, b := range prev {
		inPrev[b] = true
	}
	inNext := make(map[string]bool, len(next))
	for _, b := range next {
		inNext[b] = true
		if !inPrev[b] {
			added = append(added, b)
		}
	}
	for _, b := range prev {
		if !inNext[b] {
			removed = append(removed, b)
		}
	}
	return added, removed
}
