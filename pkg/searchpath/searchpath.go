// Package searchpath maps DLL names to files on disk.
//
// A [SearchPath] is an ordered, duplicate-free list of directories. Lookups
// walk it in order and the first directory holding the file wins. Besides
// explicit directories, [Derive] adds directories inferred from linker flags:
// a "-L<prefix>/lib" flag contributes "<prefix>/bin" when it exists, since
// MinGW-style prefixes install import libraries under lib and DLLs under bin.
package searchpath

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/dllstage/pkg/inspect"
)

// SearchPath is an ordered set of directories. It is not safe for
// concurrent use.
type SearchPath struct {
	dirs    []string
	seen    map[string]bool
	listing map[string][]string
}

// New creates a SearchPath from dirs, dropping empties and duplicates.
func New(dirs ...string) *SearchPath {
	sp := &SearchPath{
		seen:    make(map[string]bool),
		listing: make(map[string][]string),
	}
	for _, d := range dirs {
		sp.Add(d)
	}
	return sp
}

// Add appends dir unless it is empty or already present (after cleaning).
// It reports whether dir was added.
func (sp *SearchPath) Add(dir string) bool {
	if strings.TrimSpace(dir) == "" {
		return false
	}
	dir = filepath.Clean(dir)
	if sp.seen[dir] {
		return false
	}
	sp.seen[dir] = true
	sp.dirs = append(sp.dirs, dir)
	return true
}

// Dirs returns a copy of the directories in search order.
func (sp *SearchPath) Dirs() []string {
	return append([]string(nil), sp.dirs...)
}

// Len returns the number of directories.
func (sp *SearchPath) Len() int { return len(sp.dirs) }

// String joins the directories with the OS list separator.
func (sp *SearchPath) String() string {
	return strings.Join(sp.dirs, string(filepath.ListSeparator))
}

// Lookup returns the path of the first file named name, searching directories
// in order. Within a directory an exact-case match is preferred; failing
// that, a case-insensitive match among the directory's entries is accepted.
func (sp *SearchPath) Lookup(name inspect.Name) (string, bool) {
	for _, dir := range sp.dirs {
		candidate := filepath.Join(dir, string(name))
		if isFile(candidate) {
			return candidate, true
		}
		if p, ok := sp.foldLookup(dir, name); ok {
			return p, true
		}
	}
	return "", false
}

// foldLookup scans dir for an entry equal to name ignoring case. Listings are
// read once per directory.
func (sp *SearchPath) foldLookup(dir string, name inspect.Name) (string, bool) {
	entries, ok := sp.listing[dir]
	if !ok {
		des, err := os.ReadDir(dir)
		if err == nil {
			entries = make([]string, 0, len(des))
			for _, de := range des {
				entries = append(entries, de.Name())
			}
		}
		sp.listing[dir] = entries
	}
	for _, e := range entries {
		if name.Equal(inspect.Name(e)) {
			p := filepath.Join(dir, e)
			if isFile(p) {
				return p, true
			}
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// MissingDirs returns the directories that do not exist. They stay in the
// search path, where lookups in them simply fail.
func (sp *SearchPath) MissingDirs() []string {
	var out []string
	for _, d := range sp.dirs {
		if _, err := os.Stat(d); errors.Is(err, fs.ErrNotExist) {
			out = append(out, d)
		}
	}
	return out
}
