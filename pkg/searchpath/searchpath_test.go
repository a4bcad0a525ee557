package searchpath

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestNewDeduplicates(t *testing.T) {
	sp := New("/a", "", "/b", "/a/", "/a/../a", "  ", "/c")
	assert.Equal(t, []string{"/a", "/b", "/c"}, sp.Dirs())
	assert.Equal(t, 3, sp.Len())
	assert.False(t, sp.Add("/b"))
	assert.True(t, sp.Add("/d"))
}

func TestDirsReturnsCopy(t *testing.T) {
	sp := New("/a")
	d := sp.Dirs()
	d[0] = "/mutated"
	assert.Equal(t, []string{"/a"}, sp.Dirs())
}

func TestLookupFirstMatchWins(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")
	touch(t, filepath.Join(first, "libfoo.dll"))
	touch(t, filepath.Join(second, "libfoo.dll"))
	touch(t, filepath.Join(second, "libbar.dll"))

	sp := New(first, second)

	p, ok := sp.Lookup("libfoo.dll")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(first, "libfoo.dll"), p)

	p, ok = sp.Lookup("libbar.dll")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(second, "libbar.dll"), p)

	_, ok = sp.Lookup("libbaz.dll")
	assert.False(t, ok)
}

func TestLookupCaseInsensitive(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("case-insensitive filesystem")
	}
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "libFoo-1.dll"))

	p, ok := New(dir).Lookup("LIBFOO-1.DLL")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "libFoo-1.dll"), p)
}

func TestLookupIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "libfoo.dll"), 0o755))

	_, ok := New(dir).Lookup("libfoo.dll")
	assert.False(t, ok)
}

func TestLookupMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.dll"))

	sp := New(filepath.Join(dir, "nope"), dir)
	p, ok := sp.Lookup("a.dll")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "a.dll"), p)
	assert.Equal(t, []string{filepath.Join(dir, "nope")}, sp.MissingDirs())
}

func TestString(t *testing.T) {
	sp := New("/a", "/b")
	assert.Equal(t, "/a"+string(filepath.ListSeparator)+"/b", sp.String())
}
