package cli

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/dllstage/pkg/errors"
	"github.com/matzehuels/dllstage/pkg/observability"
)

// project is a fake cross-compiled build. Each "binary" holds the objdump
// output it should produce, and the fake objdump simply prints it.
type project struct {
	dir     string
	objdump string
	root    string
	prefix  string // mingw prefix with bin/ and lib/
	out     string
}

func newProject(t *testing.T) project {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake inspection command needs a POSIX shell")
	}
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dir := t.TempDir()
	p := project{
		dir:     dir,
		objdump: filepath.Join(dir, "objdump"),
		root:    filepath.Join(dir, "build", "app.exe"),
		prefix:  filepath.Join(dir, "mingw"),
		out:     filepath.Join(dir, "dist"),
	}
	for _, d := range []string{filepath.Dir(p.root), filepath.Join(p.prefix, "bin"), filepath.Join(p.prefix, "lib"), p.out} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	p.setObjdump(t, `cat "$2"`)
	p.write(t, p.root, "libfoo.dll", "USER32.dll")
	p.write(t, p.bin("libfoo.dll"), "libbar.dll", "api-ms-win-crt-heap-l1-1-0.dll")
	p.write(t, p.bin("libbar.dll"), "KERNEL32.dll")
	return p
}

func (p project) bin(name string) string { return filepath.Join(p.prefix, "bin", name) }

func (p project) setObjdump(t *testing.T, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(p.objdump, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
}

func (p project) write(t *testing.T, path string, deps ...string) {
	t.Helper()
	var b strings.Builder
	b.WriteString(filepath.Base(path) + ":     file format pei-x86-64\n\n")
	for _, d := range deps {
		b.WriteString("\tDLL Name: " + d + "\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

// run executes the CLI with args and returns what the command wrote to its
// output stream.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(observability.Reset)

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStageCopiesClosure(t *testing.T) {
	p := newProject(t)

	_, err := run(t, "--objdump", p.objdump, "-L", filepath.Join(p.prefix, "bin"), p.root, p.out)
	require.NoError(t, err)

	for _, n := range []string{"app.exe", "libfoo.dll", "libbar.dll"} {
		assert.FileExists(t, filepath.Join(p.out, n))
	}
	assert.NoFileExists(t, filepath.Join(p.out, "USER32.dll"))
}

func TestStageFromLinkerFlags(t *testing.T) {
	p := newProject(t)
	dest := filepath.Join(p.out, "tool.exe")

	_, err := run(t, "--objdump", p.objdump, "--ldflags", "-L"+filepath.Join(p.prefix, "lib")+" -lgtk-4", p.root, dest)
	require.NoError(t, err)

	assert.FileExists(t, dest)
	assert.FileExists(t, filepath.Join(p.out, "libbar.dll"))
	assert.NoFileExists(t, filepath.Join(p.out, "app.exe"))
}

func TestStageMissingCopiesNothing(t *testing.T) {
	p := newProject(t)
	p.write(t, p.bin("libbar.dll"), "libgone.dll", "libalsogone.dll")

	_, err := run(t, "--objdump", p.objdump, "-L", filepath.Join(p.prefix, "bin"), p.root, p.out)
	require.Error(t, err)
	assert.Equal(t, 1, errors.ExitCode(err))

	var missing *errors.MissingError
	require.True(t, stderrors.As(err, &missing))
	assert.Equal(t, []string{"libalsogone.dll", "libgone.dll"}, missing.Missing)

	entries, err := os.ReadDir(p.out)
	require.NoError(t, err)
	assert.Empty(t, entries)

	var report bytes.Buffer
	PrintError(&report, missing)
	assert.Contains(t, report.String(), filepath.Join(p.prefix, "bin"))
	assert.Contains(t, report.String(), "libgone.dll")
}

func TestStagePropagatesInspectorStatus(t *testing.T) {
	p := newProject(t)
	p.setObjdump(t, `echo "objdump: $2: file format not recognized" >&2; exit 3`)

	_, err := run(t, "--no-cache", "--objdump", p.objdump, p.root, p.out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInspectFailed))
	assert.Equal(t, 3, errors.ExitCode(err))
}

func TestStageDryRunWithManifest(t *testing.T) {
	p := newProject(t)
	manifest := filepath.Join(p.dir, "stage.json")

	_, err := run(t, "-n", "--manifest", manifest, "--objdump", p.objdump, "-L", filepath.Join(p.prefix, "bin"), p.root, p.out)
	require.NoError(t, err)

	entries, err := os.ReadDir(p.out)
	require.NoError(t, err)
	assert.Empty(t, entries)

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	var doc struct {
		DryRun bool `json:"dry_run"`
		Files  []struct {
			To string `json:"to"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.True(t, doc.DryRun)
	assert.Len(t, doc.Files, 3)
}

func TestStageWrongArgCount(t *testing.T) {
	_, err := run(t, "app.exe")
	assert.Error(t, err)
}

func TestStageMissingSource(t *testing.T) {
	p := newProject(t)
	_, err := run(t, "--objdump", p.objdump, filepath.Join(p.dir, "nope.exe"), p.out)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestUnknownInspector(t *testing.T) {
	p := newProject(t)
	_, err := run(t, "--inspector", "ldd", p.root, p.out)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestConfigFileSuppliesSearchDirs(t *testing.T) {
	p := newProject(t)
	cfg := filepath.Join(p.dir, "dllstage.toml")
	body := "objdump = \"" + p.objdump + "\"\nsearch_dirs = [\"" + filepath.Join(p.prefix, "bin") + "\"]\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))

	_, err := run(t, "--config", cfg, p.root, p.out)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(p.out, "libbar.dll"))
}

func TestConfigExcludes(t *testing.T) {
	p := newProject(t)
	cfg := filepath.Join(p.dir, "dllstage.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("exclude = [\"libbar.dll\"]\n"), 0o644))

	out, err := run(t, "--config", cfg, "--objdump", p.objdump, "-L", filepath.Join(p.prefix, "bin"), "deps", p.root)
	require.NoError(t, err)
	assert.Equal(t, p.bin("libfoo.dll")+"\n", out)
}

func TestDepsText(t *testing.T) {
	p := newProject(t)

	out, err := run(t, "deps", "--objdump", p.objdump, "-L", filepath.Join(p.prefix, "bin"), p.root)
	require.NoError(t, err)
	assert.Equal(t, p.bin("libbar.dll")+"\n"+p.bin("libfoo.dll")+"\n", out)

	entries, err := os.ReadDir(p.out)
	require.NoError(t, err)
	assert.Empty(t, entries, "deps never copies")
}

func TestDepsJSON(t *testing.T) {
	p := newProject(t)
	p.write(t, p.bin("libbar.dll"), "libgone.dll")

	out, err := run(t, "deps", "-f", "json", "--objdump", p.objdump, "-L", filepath.Join(p.prefix, "bin"), p.root)
	require.Error(t, err, "missing dependencies still fail after printing")
	assert.True(t, errors.Is(err, errors.ErrCodeUnresolved))

	var doc closureDoc
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, p.root, doc.Root)
	assert.Equal(t, []string{"libgone.dll"}, doc.Missing)
	assert.Equal(t, 3, doc.Inspected)
	assert.Contains(t, string(doc.Graph), `"kind": "missing"`)
}

func TestDepsDOTToFile(t *testing.T) {
	p := newProject(t)
	dot := filepath.Join(p.dir, "deps.dot")

	_, err := run(t, "deps", "-f", "dot", "-o", dot, "--objdump", p.objdump, "-L", filepath.Join(p.prefix, "bin"), p.root)
	require.NoError(t, err)

	data, err := os.ReadFile(dot)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph deps")
	assert.Contains(t, string(data), `label="libbar.dll"`)
}

func TestDepsBadFormat(t *testing.T) {
	p := newProject(t)
	_, err := run(t, "deps", "-f", "png", p.root)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestInspectionCacheReused(t *testing.T) {
	p := newProject(t)
	args := []string{"deps", "--objdump", p.objdump, "-L", filepath.Join(p.prefix, "bin"), p.root}

	first, err := run(t, args...)
	require.NoError(t, err)

	// Same command path and file contents: served from the cache.
	p.setObjdump(t, "exit 7")
	second, err := run(t, args...)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = run(t, append([]string{"--no-cache"}, args...)...)
	assert.Equal(t, 7, errors.ExitCode(err))
}

func TestVerboseInstallsHooks(t *testing.T) {
	p := newProject(t)
	_, err := run(t, "-v", "deps", "--objdump", p.objdump, "-L", filepath.Join(p.prefix, "bin"), p.root)
	require.NoError(t, err)
	assert.IsType(t, &logHooks{}, observability.Resolve())
}

func TestCachePath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	out, err := run(t, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, appName)+"\n", out)
}

func TestCacheClear(t *testing.T) {
	p := newProject(t)
	_, err := run(t, "deps", "--objdump", p.objdump, "-L", filepath.Join(p.prefix, "bin"), p.root)
	require.NoError(t, err)

	dir, err := cacheDir()
	require.NoError(t, err)
	require.DirExists(t, dir)

	_, err = run(t, "cache", "clear")
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompletion(t *testing.T) {
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "dllstage")
}

// copyPE places the PE fixture from the inspect package at path.
func copyPE(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "pkg", "inspect", "testdata", "app.exe"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o755))
}

func TestStageBuiltinInspectorReportsMissing(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "app.exe")
	out := filepath.Join(dir, "dist")
	copyPE(t, root)
	require.NoError(t, os.MkdirAll(out, 0o755))

	_, err := run(t, "--inspector", "builtin", "--no-cache", root, out)
	require.Error(t, err)
	assert.Equal(t, 1, errors.ExitCode(err))

	var missing *errors.MissingError
	require.True(t, stderrors.As(err, &missing))
	assert.Equal(t, []string{"libbar-2.dll", "libfoo.dll"}, missing.Missing)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStageBuiltinInspectorCopiesClosure(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "app.exe")
	bin := filepath.Join(dir, "mingw", "bin")
	out := filepath.Join(dir, "dist")
	copyPE(t, root)
	copyPE(t, filepath.Join(bin, "libfoo.dll"))
	copyPE(t, filepath.Join(bin, "libbar-2.dll"))
	require.NoError(t, os.MkdirAll(out, 0o755))

	_, err := run(t, "--inspector", "builtin", "--no-cache", "-L", bin, root, out)
	require.NoError(t, err)
	for _, n := range []string{"app.exe", "libfoo.dll", "libbar-2.dll"} {
		assert.FileExists(t, filepath.Join(out, n))
	}
}
