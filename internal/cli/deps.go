package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dllstage/pkg/closure"
	"github.com/matzehuels/dllstage/pkg/depgraph"
	"github.com/matzehuels/dllstage/pkg/errors"
	"github.com/matzehuels/dllstage/pkg/pipeline"
)

// Output formats for the deps command.
const (
	formatText = "text"
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

var validFormats = []string{formatText, formatJSON, formatDOT, formatSVG}

// depsCommand creates the deps command, which resolves without copying.
func (c *CLI) depsCommand() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "deps <source>",
		Short: "Print the DLL closure of a binary without copying anything",
		Long: `Print the DLL closure of a binary without copying anything.

Formats:
  text  resolved paths, one per line (default)
  json  closure summary with the full dependency graph
  dot   Graphviz DOT graph; missing DLLs are drawn dashed red
  svg   the DOT graph rendered to SVG

The output is written even when dependencies are missing; the exit status
is then 1 and the missing names are reported on stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDeps(cmd.Context(), cmd.OutOrStdout(), args[0], format, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json, dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return validFormats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runDeps resolves source and writes the closure in the requested format.
func (c *CLI) runDeps(ctx context.Context, stdout io.Writer, source, format, output string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	c.warnIfNoSearchPath()
	in, ca := c.newInspector()
	defer ca.Close()

	logger := loggerFromContext(ctx)
	runner := pipeline.NewRunner(in, logger)
	prog := newProgress(logger)

	spinner := newSpinner(ctx, fmt.Sprintf("Resolving %s...", filepath.Base(source)))
	spinner.Start()
	res, err := runner.Resolve(ctx, pipeline.Options{
		Source:     source,
		SearchDirs: c.settings.searchDirs,
		LDFlags:    c.settings.ldflags,
		Logger:     logger,
	})
	spinner.Stop()
	if err != nil {
		return err
	}
	cr := res.Closure
	prog.done(fmt.Sprintf("Resolved %d DLLs, %d missing", len(cr.Resolved), len(cr.Missing)))

	data, err := encodeClosure(ctx, cr, format)
	if err != nil {
		return err
	}
	if output == "" {
		if _, err := stdout.Write(data); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
		printSuccess("Wrote %s", format)
		printFile(output)
	}

	return cr.MissingErr()
}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if f == format {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want text, json, dot, or svg)", format)
}

// closureDoc is the JSON form of a closure.
type closureDoc struct {
	Root       string          `json:"root"`
	SearchPath []string        `json:"search_path"`
	Resolved   []string        `json:"resolved"`
	Missing    []string        `json:"missing"`
	Inspected  int             `json:"inspected"`
	Graph      json.RawMessage `json:"graph"`
}

func encodeClosure(ctx context.Context, cr *closure.Result, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case formatJSON:
		var g bytes.Buffer
		if err := depgraph.WriteJSON(cr.Graph, &g); err != nil {
			return nil, err
		}
		doc := closureDoc{
			Root:       cr.Root,
			SearchPath: nonNil(cr.SearchPath),
			Resolved:   nonNil(cr.Resolved),
			Missing:    nonNil(cr.MissingNames()),
			Inspected:  cr.Inspected,
			Graph:      bytes.TrimSpace(g.Bytes()),
		}
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode closure: %w", err)
		}
	case formatDOT:
		buf.WriteString(depgraph.ToDOT(cr.Graph))
	case formatSVG:
		svg, err := depgraph.RenderSVG(ctx, depgraph.ToDOT(cr.Graph))
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
		buf.Write(svg)
	default:
		for _, p := range cr.Resolved {
			fmt.Fprintln(&buf, p)
		}
	}
	return buf.Bytes(), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
