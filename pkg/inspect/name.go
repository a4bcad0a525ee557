package inspect

import (
	"slices"
	"strings"
)

// Name is a DLL name as declared inside a binary, e.g. "libgcc_s_seh-1.dll".
// Names compare case-insensitively.
type Name string

// Key returns the case-folded form used for comparisons and set membership.
func (n Name) Key() string { return strings.ToLower(string(n)) }

// Equal reports whether n and o name the same library.
func (n Name) Equal(o Name) bool { return strings.EqualFold(string(n), string(o)) }

// String returns the name as declared.
func (n Name) String() string { return string(n) }

// SortNames sorts names by key, breaking ties on the declared spelling so the
// order is total.
func SortNames(names []Name) {
	slices.SortFunc(names, func(a, b Name) int {
		if c := strings.Compare(a.Key(), b.Key()); c != 0 {
			return c
		}
		return strings.Compare(string(a), string(b))
	})
}
