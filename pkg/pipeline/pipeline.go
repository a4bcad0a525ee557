// Package pipeline provides the resolve-then-deploy flow behind dllstage.
//
// A run has two stages:
//
//  1. Resolve: build the search path and compute the dependency closure
//  2. Deploy: copy the root and its closure to the destination
//
// Deploy only runs when every dependency was found. When anything is
// missing, [Runner.Run] returns an [errors.MissingError] and nothing is
// copied, not even the root.
//
// # Usage
//
//	runner := pipeline.NewRunner(inspect.NewObjdump("objdump", nil, logger), logger)
//	res, err := runner.Run(ctx, pipeline.Options{
//	    Source:      "build/app.exe",
//	    Destination: "dist/",
//	    LDFlags:     "-L/usr/x86_64-w64-mingw32/lib",
//	})
package pipeline

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dllstage/pkg/closure"
	"github.com/matzehuels/dllstage/pkg/deploy"
	"github.com/matzehuels/dllstage/pkg/errors"
)

// Options contains all configuration for a run.
type Options struct {
	Source      string   `json:"source"`
	Destination string   `json:"destination"`
	SearchDirs  []string `json:"search_dirs,omitempty"`
	LDFlags     string   `json:"ldflags,omitempty"`
	DryRun      bool     `json:"dry_run,omitempty"`
	Manifest    string   `json:"manifest,omitempty"` // Optional path for a JSON deploy manifest

	Logger *log.Logger `json:"-"`
}

// Validate checks that the options describe a runnable deployment.
func (o Options) Validate() error {
	if err := o.ValidateForResolve(); err != nil {
		return err
	}
	if strings.TrimSpace(o.Destination) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "destination is required")
	}
	return nil
}

// ValidateForResolve checks only what resolution needs.
func (o Options) ValidateForResolve() error {
	if err := errors.ValidateSource(o.Source); err != nil {
		return err
	}
	info, err := os.Stat(o.Source)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.ErrCodeFileNotFound, "source %s does not exist", o.Source)
		}
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "stat %s", o.Source)
	}
	if info.IsDir() {
		return errors.New(errors.ErrCodeInvalidPath, "source %s is a directory", o.Source)
	}
	return nil
}

// Result contains the outputs of a run.
type Result struct {
	Closure *closure.Result `json:"closure"`
	Deploy  *deploy.Report  `json:"deploy,omitempty"`
	Stats   Stats           `json:"stats"`
}

// Stats contains timing information.
type Stats struct {
	ResolveTime time.Duration `json:"resolve_time_ns"`
	DeployTime  time.Duration `json:"deploy_time_ns"`
}
