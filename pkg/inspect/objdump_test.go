package inspect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/matzehuels/dllstage/pkg/errors"
)

// fakeObjdump writes a script that prints the contents of the inspected
// file, so test "binaries" are simply files holding objdump output.
func fakeObjdump(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake inspection command needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "objdump")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleOutput = `
app.exe:     file format pei-x86-64

The Import Tables (interpreted .idata section contents)
 vma:            Hint/Ord Member-Name Bound-To
 00012000       0000803c 00000000 00000000 000125a4 000122a8

	DLL Name: KERNEL32.dll
	vma:  Hint/Ord Member-Name Bound-To
	12688	  283  DeleteCriticalSection

	DLL Name: api-ms-win-crt-runtime-l1-1-0.dll
	DLL Name: libgcc_s_seh-1.dll
	DLL Name: libstdc++-6.dll
	DLL Name: LIBGCC_S_SEH-1.DLL
`

func TestObjdumpInspect(t *testing.T) {
	cmd := fakeObjdump(t, `[ "$1" = "-p" ] || exit 9; cat "$2"`)
	bin := writeFile(t, t.TempDir(), "app.exe", sampleOutput)

	o := NewObjdump(cmd, nil, log.New(os.Stderr))
	names, err := o.Inspect(context.Background(), bin)
	require.NoError(t, err)
	assert.Equal(t, []Name{"libgcc_s_seh-1.dll", "libstdc++-6.dll"}, names)
}

func TestObjdumpNoDependencies(t *testing.T) {
	cmd := fakeObjdump(t, `cat "$2"`)
	bin := writeFile(t, t.TempDir(), "app.exe", "\tDLL Name: KERNEL32.dll\n\tDLL Name: msvcrt.dll\n")

	names, err := NewObjdump(cmd, nil, nil).Inspect(context.Background(), bin)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestObjdumpCustomExcluder(t *testing.T) {
	cmd := fakeObjdump(t, `cat "$2"`)
	bin := writeFile(t, t.TempDir(), "app.exe", "\tDLL Name: libfoo.dll\n\tDLL Name: libbar.dll\n")

	names, err := NewObjdump(cmd, NewExcluder("LIBBAR.dll"), nil).Inspect(context.Background(), bin)
	require.NoError(t, err)
	assert.Equal(t, []Name{"libfoo.dll"}, names)
}

func TestObjdumpNonZeroExit(t *testing.T) {
	cmd := fakeObjdump(t, `echo "objdump: $2: file format not recognized" >&2; exit 3`)
	bin := writeFile(t, t.TempDir(), "app.exe", "")

	_, err := NewObjdump(cmd, nil, nil).Inspect(context.Background(), bin)
	require.Error(t, err)

	var ie *InspectError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 3, ie.Status)
	assert.Equal(t, 3, ie.ExitStatus())
	assert.Equal(t, bin, ie.File)
	assert.Contains(t, ie.Stderr, "file format not recognized")
	assert.True(t, dserrors.Is(err, dserrors.ErrCodeInspectFailed))
	assert.Equal(t, 3, dserrors.ExitCode(err))
}

func TestObjdumpOutputBeforeFailure(t *testing.T) {
	// Output is consumed, but the exit status still decides.
	cmd := fakeObjdump(t, `cat "$2"; exit 1`)
	bin := writeFile(t, t.TempDir(), "app.exe", "\tDLL Name: libfoo.dll\n")

	_, err := NewObjdump(cmd, nil, nil).Inspect(context.Background(), bin)
	assert.True(t, dserrors.Is(err, dserrors.ErrCodeInspectFailed))
}

func TestObjdumpMissingCommand(t *testing.T) {
	bin := writeFile(t, t.TempDir(), "app.exe", "")

	_, err := NewObjdump(filepath.Join(t.TempDir(), "no-such-objdump"), nil, nil).Inspect(context.Background(), bin)
	require.Error(t, err)

	var ie *InspectError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, -1, ie.Status)
	assert.Equal(t, 1, dserrors.ExitCode(err))
}

func TestObjdumpInvalidDependencyName(t *testing.T) {
	cmd := fakeObjdump(t, `cat "$2"`)
	bin := writeFile(t, t.TempDir(), "app.exe", "\tDLL Name: ../../evil.dll\n")

	_, err := NewObjdump(cmd, nil, nil).Inspect(context.Background(), bin)
	assert.True(t, dserrors.Is(err, dserrors.ErrCodeInvalidDependency))
}

func TestObjdumpID(t *testing.T) {
	a := NewObjdump("objdump", nil, nil)
	b := NewObjdump("x86_64-w64-mingw32-objdump", nil, nil)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, DefaultCommand, NewObjdump("", nil, nil).Command)
}
