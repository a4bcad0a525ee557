package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dllstage/pkg/pipeline"
)

// stageCommand creates the root command, which resolves and deploys.
func (c *CLI) stageCommand() *cobra.Command {
	var (
		dryRun   bool
		manifest string
	)

	cmd := &cobra.Command{
		Use:   appName + " [flags] <source> <destination>",
		Short: "Copy a Windows binary together with the DLLs it needs",
		Long: `Copy a Windows binary together with every DLL it transitively depends on.

Dependencies are read with "objdump -p" (or the builtin PE reader), looked up
in the search directories, and followed until the closure is complete. System
DLLs and api-ms-win-* forwarders are skipped.

If any dependency cannot be found, nothing is copied: the search path and the
missing names are printed and the exit status is 1.

The destination is either an existing directory (the binary keeps its name)
or a full path for the binary; the DLLs land next to it.

Examples:
  dllstage -L /usr/x86_64-w64-mingw32/sys-root/mingw/bin build/app.exe dist/
  dllstage --ldflags "$(pkg-config --libs gtk4)" build/app.exe dist/app.exe
  dllstage -n --manifest stage.json build/app.exe dist/`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStage(cmd.Context(), pipeline.Options{
				Source:      args[0],
				Destination: args[1],
				SearchDirs:  c.settings.searchDirs,
				LDFlags:     c.settings.ldflags,
				DryRun:      dryRun,
				Manifest:    manifest,
			})
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "resolve and print the plan without copying")
	cmd.Flags().StringVar(&manifest, "manifest", "", "write a JSON deployment manifest to this file")

	return cmd
}

// runStage resolves the closure of opts.Source and deploys it.
func (c *CLI) runStage(ctx context.Context, opts pipeline.Options) error {
	c.warnIfNoSearchPath()
	in, ca := c.newInspector()
	defer ca.Close()

	opts.Logger = loggerFromContext(ctx)
	runner := pipeline.NewRunner(in, opts.Logger)
	prog := newProgress(opts.Logger)

	spinner := newSpinner(ctx, fmt.Sprintf("Resolving %s...", filepath.Base(opts.Source)))
	spinner.Start()
	res, err := runner.Run(ctx, opts)
	spinner.Stop()
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if opts.DryRun {
		printInfo("Dry run: would copy %d files", len(res.Deploy.Files))
		for _, f := range res.Deploy.Files {
			printFile(f.To)
		}
	} else {
		prog.done(fmt.Sprintf("Staged %s with %d DLLs", filepath.Base(opts.Source), len(res.Closure.Resolved)))
		printSuccess("Staged %s", filepath.Base(opts.Source))
		printFile(res.Deploy.Files[0].To)
	}
	printStats(len(res.Closure.Resolved), res.Closure.Inspected)
	if opts.Manifest != "" {
		printDetail("Manifest: %s", opts.Manifest)
	}
	return nil
}

// warnIfNoSearchPath warns when neither search directories nor linker flags
// were given, since then only excluded system DLLs can be satisfied.
func (c *CLI) warnIfNoSearchPath() {
	if len(c.settings.searchDirs) == 0 && c.settings.ldflags == "" {
		printWarning("No search directories given; use -L or --ldflags")
	}
}
