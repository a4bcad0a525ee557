package inspect

import (
	"slices"
	"strings"

	"github.com/matzehuels/dllstage/pkg/cache"
)

// ForwarderPrefix marks API-set forwarders. They are resolved by the Windows
// loader and never exist as files to copy.
const ForwarderPrefix = "api-ms-win-"

// systemDLLs ship with every supported Windows installation.
var systemDLLs = []string{
	"advapi32.dll",
	"avicap32.dll",
	"avrt.dll",
	"bcrypt.dll",
	"comctl32.dll",
	"comdlg32.dll",
	"crypt32.dll",
	"d2d1.dll",
	"d3d11.dll",
	"d3d9.dll",
	"dbghelp.dll",
	"dnsapi.dll",
	"dwmapi.dll",
	"dwrite.dll",
	"dxgi.dll",
	"gdi32.dll",
	"gdiplus.dll",
	"glu32.dll",
	"hid.dll",
	"imm32.dll",
	"iphlpapi.dll",
	"kernel32.dll",
	"mpr.dll",
	"msimg32.dll",
	"msvcrt.dll",
	"mswsock.dll",
	"netapi32.dll",
	"normaliz.dll",
	"ntdll.dll",
	"ole32.dll",
	"oleaut32.dll",
	"opengl32.dll",
	"psapi.dll",
	"rpcrt4.dll",
	"secur32.dll",
	"setupapi.dll",
	"shell32.dll",
	"shlwapi.dll",
	"ucrtbase.dll",
	"user32.dll",
	"userenv.dll",
	"usp10.dll",
	"uxtheme.dll",
	"version.dll",
	"winhttp.dll",
	"wininet.dll",
	"winmm.dll",
	"winspool.drv",
	"wldap32.dll",
	"ws2_32.dll",
	"wsock32.dll",
	"wtsapi32.dll",
}

// DefaultExcluder excludes the built-in system DLLs and API-set forwarders.
var DefaultExcluder = NewExcluder()

// Excluder decides which declared names are supplied by the operating system.
// It is immutable after construction.
type Excluder struct {
	names map[string]struct{}
}

// NewExcluder returns an Excluder covering the built-in system DLLs plus extra.
// Extra names are compared case-insensitively; blank entries are ignored.
func NewExcluder(extra ...string) *Excluder {
	e := &Excluder{names: make(map[string]struct{}, len(systemDLLs)+len(extra))}
	for _, n := range systemDLLs {
		e.names[n] = struct{}{}
	}
	for _, n := range extra {
		if n = strings.TrimSpace(n); n != "" {
			e.names[Name(n).Key()] = struct{}{}
		}
	}
	return e
}

// Excluded reports whether n must never be resolved or copied. Forwarders are
// checked first, then membership in the system set.
func (e *Excluder) Excluded(n Name) bool {
	key := n.Key()
	if strings.HasPrefix(key, ForwarderPrefix) {
		return true
	}
	_, ok := e.names[key]
	return ok
}

// Filter drops excluded names and case-insensitive duplicates, keeping the
// first spelling seen. The input slice is not modified.
func (e *Excluder) Filter(names []Name) []Name {
	out := make([]Name, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if e.Excluded(n) || seen[n.Key()] {
			continue
		}
		seen[n.Key()] = true
		out = append(out, n)
	}
	return out
}

// Names returns the excluded library names, sorted.
func (e *Excluder) Names() []string {
	out := make([]string, 0, len(e.names))
	for n := range e.names {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Fingerprint identifies the exclusion policy. Cached inspection results are
// only valid under the policy that produced them.
func (e *Excluder) Fingerprint() string {
	return cache.Hash([]byte(ForwarderPrefix + "\n" + strings.Join(e.Names(), "\n")))[:16]
}
