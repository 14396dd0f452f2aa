// Package export assembles and writes the output bibliography.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Merge concatenates the remote export and the supplemental text. A
// newline is inserted only when remote would otherwise run into supp.
func Merge(remote, supp string) string {
	if remote != "" && supp != "" && !strings.HasSuffix(remote, "\n") {
		return remote + "\n" + supp
	}
	return remote + supp
}

// WriteFileAtomic replaces path with content. The content is written to a
// temporary file in the same directory and renamed over path, so readers
// see either the old file or the new one.
func WriteFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	// Remove the temp file on any failure; after a successful rename it no
	// longer exists and Remove is a no-op.
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("setting mode on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
