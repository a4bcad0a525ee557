package inspect

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dllstage/pkg/observability"
)

// DefaultCommand is the inspection command used when none is configured.
// Cross toolchains usually install a prefixed variant such as
// x86_64-w64-mingw32-objdump; pass that instead when plain objdump cannot
// read PE files.
const DefaultCommand = "objdump"

// maxLineSize bounds a single line of objdump output.
const maxLineSize = 1 << 20

// Objdump inspects files by running "<Command> -p <file>".
type Objdump struct {
	Command  string
	Excluder *Excluder
	Logger   *log.Logger
}

// NewObjdump creates an Objdump inspector. An empty command means
// [DefaultCommand]; a nil excluder means [DefaultExcluder].
func NewObjdump(command string, ex *Excluder, logger *log.Logger) *Objdump {
	if command == "" {
		command = DefaultCommand
	}
	if ex == nil {
		ex = DefaultExcluder
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Objdump{Command: command, Excluder: ex, Logger: logger}
}

// ID identifies this inspector in cache keys.
func (o *Objdump) ID() string {
	return "objdump:" + o.Command + ":" + o.Excluder.Fingerprint()
}

// Inspect runs the command and collects every "DLL Name:" line. Stdout is
// read to the end before the exit status is checked; a non-zero status is
// an *InspectError carrying that status.
func (o *Objdump) Inspect(ctx context.Context, path string) ([]Name, error) {
	start := time.Now()
	observability.Resolve().OnInspectStart(ctx, path)

	names, err := o.run(ctx, path)
	if err == nil {
		names, err = finish(o.Excluder, path, names)
	}

	observability.Resolve().OnInspectComplete(ctx, path, len(names), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	o.Logger.Debug("inspected", "file", path, "deps", len(names), "duration", time.Since(start).Round(time.Millisecond))
	return names, nil
}

func (o *Objdump) run(ctx context.Context, path string) ([]Name, error) {
	cmd := exec.CommandContext(ctx, o.Command, "-p", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	fail := func(status int, err error) *InspectError {
		return &InspectError{
			Command: o.Command,
			File:    path,
			Status:  status,
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fail(-1, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fail(-1, err)
	}

	var names []Name
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		if m, ok := MatchLine(sc.Text()); ok {
			names = append(names, m.Name)
		}
	}
	scanErr := sc.Err()
	if scanErr != nil {
		// Wait must not be called while the pipe still has unread data.
		_, _ = io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fail(-1, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fail(exitErr.ExitCode(), fmt.Errorf("exited with status %d", exitErr.ExitCode()))
		}
		return nil, fail(-1, err)
	}
	if scanErr != nil {
		return nil, fail(-1, fmt.Errorf("read output: %w", scanErr))
	}
	return names, nil
}

var _ Inspector = (*Objdump)(nil)
