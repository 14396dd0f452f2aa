// Package source produces collection snapshots: the bibcodes to export and
// a token that changes whenever the collection does.
package source

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/matsen/adsbib/internal/ads"
)

// Snapshot is one poll of a collection. Snapshots are never merged: each
// replaces the previous one whole.
type Snapshot struct {
	Bibcodes []string
	// LastModified is opaque; only equality is meaningful.
	LastModified string
	Name         string
}

// Snapshotter produces the current snapshot of a collection.
type Snapshotter interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Kind names a snapshotter implementation.
type Kind string

const (
	KindAuto    Kind = "auto"
	KindLibrary Kind = "library"
	KindFile    Kind = "file"
	KindTeX     Kind = "tex"
)

// ErrUnknownKind is returned for an unrecognized source kind.
var ErrUnknownKind = errors.New("unknown source kind")

// ParseKind validates a source kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAuto, KindLibrary, KindFile, KindTeX:
		return k, nil
	case "":
		return KindAuto, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: auto, library, file, tex)", ErrUnknownKind, s)
	}
}

// Detect resolves KindAuto for arg: an existing *.tex file is a TeX
// source, any other existing file a bibcode list, anything else a library id.
func Detect(arg string) Kind {
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		return KindLibrary
	}
	if strings.EqualFold(filepath.Ext(arg), ".tex") {
		return KindTeX
	}
	return KindFile
}

// LibraryFetcher is the part of ads.Client a Library source needs.
type LibraryFetcher interface {
	FetchLibrary(ctx context.Context, libraryID string) (*ads.Library, error)
}

// New builds the snapshotter for arg. fetcher is only used for libraries.
func New(kind Kind, arg string, fetcher LibraryFetcher) (Snapshotter, error) {
	if kind == KindAuto {
		kind = Detect(arg)
	}
	switch kind {
	case KindLibrary:
		return &Library{ID: arg, Fetcher: fetcher}, nil
	case KindFile:
		return &BibcodeFile{Path: arg}, nil
	case KindTeX:
		return &TeX{Path: arg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// fingerprint returns the BLAKE2b-256 digest of data as hex.
func fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
