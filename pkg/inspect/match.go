package inspect

import "regexp"

// dllNameRe matches the import lines objdump -p prints for PE files:
//
//	DLL Name: KERNEL32.dll
var dllNameRe = regexp.MustCompile(`^\s*DLL Name: (.+\.(?i:dll))\s*$`)

// Match is a dependency declaration recognised in one line of inspector output.
type Match struct {
	Name Name
}

// MatchLine recognises a "DLL Name: <name>.dll" line. Any other line,
// including DLL Name lines for files without a .dll extension, yields false.
func MatchLine(line string) (Match, bool) {
	m := dllNameRe.FindStringSubmatch(line)
	if m == nil {
		return Match{}, false
	}
	return Match{Name: Name(m[1])}, true
}
