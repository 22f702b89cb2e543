// Package filter resolves command line paths into the list of files to process.
// Named files are taken as given; directories are walked and their files selected
// with include/exclude patterns using find -path semantics.
package filter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/idelchi/tfcs/pkg/pathmatch"
)

// ErrNoFiles is returned when nothing was selected.
var ErrNoFiles = errors.New("no files matched")

// Filter selects walked files. Excludes always win.
type Filter struct {
	includes pathmatch.Set
	excludes pathmatch.Set

	// matchAll is set when no include patterns were requested
	matchAll bool
}

// New compiles the patterns. With hasIncludes false every file not excluded is selected,
// even if includes is empty.
func New(includes, excludes []string, hasIncludes bool) (*Filter, error) {
	inc, err := pathmatch.NewSet(normalize(includes)...)
	if err != nil {
		return nil, fmt.Errorf("compiling include patterns: %w", err)
	}

	exc, err := pathmatch.NewSet(normalize(excludes)...)
	if err != nil {
		return nil, fmt.Errorf("compiling exclude patterns: %w", err)
	}

	return &Filter{includes: inc, excludes: exc, matchAll: !hasIncludes}, nil
}

// Match reports whether the walked path is selected.
func (f *Filter) Match(path string) bool {
	path = filepath.ToSlash(filepath.Clean(path))

	return (f.matchAll || f.includes.MatchAny(path)) && !f.excludes.MatchAny(path)
}

// Suffix returns a pattern matching any path ending in suffix.
func Suffix(suffix string) string {
	return "*" + pathmatch.Escape(suffix)
}

// Resolve expands args into files. Files named directly bypass the filter.
// Directories are walked and filtered. Duplicates are dropped.
// It also returns the number of candidates scanned.
func (f *Filter) Resolve(args []string) (files []string, scanned int, err error) {
	seen := make(map[string]struct{})

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}

		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, arg := range args {
		arg = filepath.Clean(arg)

		info, err := os.Stat(arg)
		if err != nil {
			return nil, scanned, fmt.Errorf("stat %q: %w", arg, err)
		}

		if !info.IsDir() {
			scanned++

			add(arg)

			continue
		}

		err = filepath.WalkDir(arg, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !entry.Type().IsRegular() {
				return nil
			}

			scanned++

			if f.Match(path) {
				add(path)
			}

			return nil
		})
		if err != nil {
			return nil, scanned, fmt.Errorf("walking %q: %w", arg, err)
		}
	}

	if len(files) == 0 {
		return nil, scanned, fmt.Errorf("%w: %v", ErrNoFiles, args)
	}

	return files, scanned, nil
}

// normalize strips leading "./" from patterns so they match cleaned paths.
func normalize(patterns []string) []string {
	out := make([]string, len(patterns))

	for i, p := range patterns {
		out[i] = strings.TrimPrefix(p, "./")
	}

	return out
}
