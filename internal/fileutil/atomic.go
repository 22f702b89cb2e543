// Package fileutil provides atomic output files: data is written to a temporary file
// next to the destination and renamed into place only once it is complete.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	ownerReadWrite = 0o600
	executableBits = 0o111
)

// Atomic is a temporary output file that becomes the destination on Commit.
type Atomic struct {
	*os.File

	// Source is the stat of the input file
	Source os.FileInfo

	dest      string
	committed bool
}

// Create stats src and opens a temporary file in the directory of dest.
// Callers must defer Discard.
func Create(src, dest string) (*Atomic, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("getting file info for %q: %w", src, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}

	return &Atomic{
		File:   tmp,
		Source: info,
		dest:   dest,
	}, nil
}

// Executable reports whether any execute bit is set on the source.
func (a *Atomic) Executable() bool {
	return a.Source.Mode()&executableBits != 0
}

// Commit sets owner-only permissions (plus the source's execute bits), closes the
// temporary file, renames it to the destination and returns the final size.
// With preserveTimestamps the source modification time is copied over.
func (a *Atomic) Commit(preserveTimestamps bool) (int64, error) {
	perm := os.FileMode(ownerReadWrite)

	if a.Executable() {
		perm |= executableBits
	}

	if err := a.Chmod(perm); err != nil {
		return 0, fmt.Errorf("setting file permissions: %w", err)
	}

	if err := a.Close(); err != nil {
		return 0, fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(a.Name(), a.dest); err != nil {
		return 0, fmt.Errorf("renaming output file: %w", err)
	}

	a.committed = true

	if preserveTimestamps {
		modTime := a.Source.ModTime()

		if err := os.Chtimes(a.dest, modTime, modTime); err != nil {
			return 0, fmt.Errorf("preserving timestamps: %w", err)
		}
	}

	info, err := os.Stat(a.dest)
	if err != nil {
		return 0, fmt.Errorf("stat output %q: %w", a.dest, err)
	}

	return info.Size(), nil
}

// Discard closes and removes the temporary file unless it was committed.
func (a *Atomic) Discard() {
	if a.committed {
		return
	}

	a.Close()           //nolint:errcheck,gosec // best-effort cleanup
	os.Remove(a.Name()) //nolint:errcheck,gosec // best-effort cleanup
}
