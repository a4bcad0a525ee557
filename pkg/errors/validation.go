package errors

import (
	"strings"
	"unicode"
)

// maxDependencyNameLength bounds declared names; Windows caps a path
// component at 255 characters.
const maxDependencyNameLength = 255

// ValidateDependencyName validates a DLL name declared inside a binary before
// it is joined onto a search directory. Binaries are untrusted input, so the
// rules reject anything that is not a plain file name:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators (/ or \) or drive prefixes
//   - No "." or ".." components
//   - Maximum length of 255 characters
func ValidateDependencyName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidDependency, "dependency name cannot be empty")
	}

	if len(name) > maxDependencyNameLength {
		return New(ErrCodeInvalidDependency, "dependency name too long (max %d characters)", maxDependencyNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDependency, "dependency name %q contains control characters", name)
		}
	}

	if strings.ContainsAny(name, `/\:`) {
		return New(ErrCodeInvalidDependency, "dependency name %q must not contain path separators", name)
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidDependency, "dependency name %q is not a file name", name)
	}

	return nil
}

// ValidateSource validates the source path given on the command line.
func ValidateSource(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidInput, "source path cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidPath, "source path contains a null byte")
	}
	return nil
}
