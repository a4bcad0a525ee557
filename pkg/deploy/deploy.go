// Package deploy stages a binary and its resolved dependencies into a
// destination directory.
//
// Copies are not transactional: if a copy fails midway, files already copied
// stay in place.
package deploy

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	dserrors "github.com/matzehuels/dllstage/pkg/errors"
	"github.com/matzehuels/dllstage/pkg/observability"
)

// Options configures a deployment.
type Options struct {
	DryRun bool        // Plan only, touch nothing
	Logger *log.Logger // Defaults to log.Default()
}

// Copied describes one staged file.
type Copied struct {
	From string `json:"from"`
	To   string `json:"to"`
	Size int64  `json:"size"`
}

// Report describes a finished (or planned) deployment.
type Report struct {
	RunID       string        `json:"run_id"`
	Source      string        `json:"source"`
	Destination string        `json:"destination"`
	Files       []Copied      `json:"files"`
	DryRun      bool          `json:"dry_run,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
}

// Target decides where root goes. If dest is an existing directory, root
// keeps its base name inside it. A dest ending in a path separator names a
// directory that is created if needed. Anything else is the full target path,
// and its parent directory receives the dependencies.
func Target(root, dest string, dryRun bool) (file, dir string, err error) {
	if dest == "" {
		return "", "", dserrors.New(dserrors.ErrCodeInvalidInput, "destination cannot be empty")
	}
	if info, statErr := os.Stat(dest); statErr == nil && info.IsDir() {
		dir = filepath.Clean(dest)
		return filepath.Join(dir, filepath.Base(root)), dir, nil
	}
	if strings.HasSuffix(dest, "/") || strings.HasSuffix(dest, string(filepath.Separator)) {
		dir = filepath.Clean(dest)
		if !dryRun {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", "", dserrors.Wrap(dserrors.ErrCodeCopyFailed, err, "create %s", dir)
			}
		}
		return filepath.Join(dir, filepath.Base(root)), dir, nil
	}
	file = filepath.Clean(dest)
	return file, filepath.Dir(file), nil
}

// Deploy copies root to its target and then every dependency into the target
// directory under its own base name. The first failure is returned
// immediately; there is no retry and no rollback.
func Deploy(ctx context.Context, root string, deps []string, dest string, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	rep := &Report{
		RunID:       uuid.NewString(),
		Source:      root,
		Destination: dest,
		DryRun:      opts.DryRun,
		StartedAt:   time.Now(),
	}

	file, dir, err := Target(root, dest, opts.DryRun)
	if err != nil {
		return nil, err
	}

	plan := make([]Copied, 0, len(deps)+1)
	plan = append(plan, Copied{From: root, To: file})
	for _, d := range deps {
		plan = append(plan, Copied{From: d, To: filepath.Join(dir, filepath.Base(d))})
	}

	for _, c := range plan {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if opts.DryRun {
			if info, err := os.Stat(c.From); err == nil {
				c.Size = info.Size()
			}
			rep.Files = append(rep.Files, c)
			logger.Debug("would copy", "from", c.From, "to", c.To)
			continue
		}
		n, err := copyFile(c.From, c.To)
		if err != nil {
			rep.Duration = time.Since(rep.StartedAt)
			return rep, dserrors.Wrap(dserrors.ErrCodeCopyFailed, err, "copy %s to %s", c.From, c.To)
		}
		c.Size = n
		rep.Files = append(rep.Files, c)
		observability.Resolve().OnCopy(ctx, c.From, c.To, n)
		logger.Debug("copied", "from", c.From, "to", c.To, "bytes", n)
	}

	rep.Duration = time.Since(rep.StartedAt)
	return rep, nil
}

// copyFile copies a regular file, keeping its permission bits. Copying a file
// onto itself is a no-op.
func copyFile(src, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, &fs.PathError{Op: "copy", Path: src, Err: errors.New("not a regular file")}
	}
	if same(src, dst) {
		return info.Size(), nil
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}
	// OpenFile only applies the mode on create; an existing file keeps its old bits.
	return n, os.Chmod(dst, info.Mode().Perm())
}

func same(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
