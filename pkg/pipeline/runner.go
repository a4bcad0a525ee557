package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dllstage/pkg/closure"
	"github.com/matzehuels/dllstage/pkg/deploy"
	"github.com/matzehuels/dllstage/pkg/inspect"
	"github.com/matzehuels/dllstage/pkg/searchpath"
)

// Runner executes runs with a fixed inspector.
//
// The Runner holds no per-run state, so one Runner may serve several
// goroutines with different options.
type Runner struct {
	Inspector inspect.Inspector
	Logger    *log.Logger
}

// NewRunner creates a runner. If logger is nil, log.Default() is used.
func NewRunner(in inspect.Inspector, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Inspector: in, Logger: logger}
}

// Run resolves the closure of opts.Source and, if it is complete, deploys it.
//
// On unresolved dependencies the returned Result still carries the closure
// and the error is an *errors.MissingError.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	res, err := r.Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := res.Closure.MissingErr(); err != nil {
		return res, err
	}

	deployStart := time.Now()
	rep, err := deploy.Deploy(ctx, opts.Source, res.Closure.Resolved, opts.Destination, deploy.Options{
		DryRun: opts.DryRun,
		Logger: opts.Logger,
	})
	res.Deploy = rep
	res.Stats.DeployTime = time.Since(deployStart)
	if err != nil {
		return res, fmt.Errorf("deploy: %w", err)
	}

	r.Logger.Debug("deployed",
		"files", len(rep.Files),
		"destination", opts.Destination,
		"dry_run", opts.DryRun,
		"duration", res.Stats.DeployTime.Round(time.Millisecond))

	if opts.Manifest != "" {
		if err := deploy.WriteManifest(opts.Manifest, rep); err != nil {
			return res, err
		}
		r.Logger.Debug("wrote manifest", "path", opts.Manifest)
	}
	return res, nil
}

// Resolve runs the resolution stage only. Missing dependencies are not an
// error here; check Result.Closure.OK.
func (r *Runner) Resolve(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateForResolve(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	sp := searchpath.Derive(opts.SearchDirs, opts.LDFlags)
	for _, d := range sp.MissingDirs() {
		opts.Logger.Warn("search directory does not exist", "dir", d)
	}

	start := time.Now()
	cr, err := closure.NewResolver(r.Inspector, sp, opts.Logger).Resolve(ctx, opts.Source)
	if err != nil {
		return nil, err
	}
	res := &Result{Closure: cr}
	res.Stats.ResolveTime = time.Since(start)

	r.Logger.Debug("resolved dependencies",
		"source", opts.Source,
		"resolved", len(cr.Resolved),
		"missing", len(cr.Missing),
		"duration", res.Stats.ResolveTime.Round(time.Millisecond))
	return res, nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
