package searchpath

import (
	"path/filepath"
	"strings"
	"unicode"
)

const (
	libPathFlag = "-L"
	libDirName  = "lib"
	binDirName  = "bin"
)

// LinkerDirs derives binary directories from a string of linker flags.
//
// For every "-L<dir>" flag (or "-L" followed by a separate "<dir>" token)
// whose last path component is exactly "lib", the sibling "bin" directory is
// returned if exists reports true for it. Other flags are ignored and never
// make derivation fail.
func LinkerDirs(flags string, exists func(string) bool) []string {
	if exists == nil {
		exists = IsDir
	}

	fields := splitFlags(flags)
	var dirs []string
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		if !strings.HasPrefix(tok, libPathFlag) {
			continue
		}
		dir := strings.TrimPrefix(tok, libPathFlag)
		if dir == "" {
			if i+1 >= len(fields) {
				break
			}
			i++
			dir = fields[i]
		}
		if bin, ok := binFor(dir); ok && exists(bin) {
			dirs = append(dirs, bin)
		}
	}
	return dirs
}

// splitFlags splits s on whitespace. Single or double quotes group a token
// and are removed; nothing else is interpreted, so backslashes and '$' stay
// literal. An unterminated quote runs to the end of the string.
func splitFlags(s string) []string {
	var (
		fields []string
		cur    strings.Builder
		quote  rune
		inTok  bool
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inTok = true
		case unicode.IsSpace(r):
			if inTok {
				fields = append(fields, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			cur.WriteRune(r)
			inTok = true
		}
	}
	if inTok {
		fields = append(fields, cur.String())
	}
	return fields
}

// binFor maps "<prefix>/lib" to "<prefix>/bin". Both '/' and '\' count as
// separators so Windows-style prefixes work on any host.
func binFor(dir string) (string, bool) {
	i := strings.LastIndexAny(dir, `/\`)
	parent, last := dir[:i+1], dir[i+1:]
	if last != libDirName {
		return "", false
	}
	if parent == "" {
		return binDirName, true
	}
	return filepath.Clean(parent + binDirName), true
}

// Derive builds the search path: explicit dirs first, then directories
// inferred from ldflags by [LinkerDirs].
func Derive(dirs []string, ldflags string) *SearchPath {
	sp := New(dirs...)
	for _, d := range LinkerDirs(ldflags, IsDir) {
		sp.Add(d)
	}
	return sp
}
