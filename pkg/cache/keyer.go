package cache

// Keyer builds cache keys.
type Keyer interface {
	// InspectKey returns the key for the dependency list of a file, as
	// reported by the named inspector (e.g. "objdump:x86_64-w64-mingw32-objdump").
	InspectKey(inspector, fileHash string) string
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// InspectKey hashes the inspector identity together with the file hash so the
// key stays fixed-length whatever the command path looks like.
func (DefaultKeyer) InspectKey(inspector, fileHash string) string {
	return hashKey("inspect", inspector, fileHash)
}
