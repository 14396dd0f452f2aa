package source

import (
	"context"
	"fmt"
)

// Library snapshots an ADS library.
type Library struct {
	ID      string
	Fetcher LibraryFetcher
}

// Snapshot fetches the library. Errors keep their ads classification.
func (l *Library) Snapshot(ctx context.Context) (Snapshot, error) {
	lib, err := l.Fetcher.FetchLibrary(ctx, l.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetching library %s: %w", l.ID, err)
	}
	return Snapshot{
		Bibcodes:     lib.Bibcodes,
		LastModified: lib.LastModified,
		Name:         "ADS Library: " + lib.Name,
	}, nil
}
