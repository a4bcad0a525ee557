package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dllstage/pkg/buildinfo"
	"github.com/matzehuels/dllstage/pkg/cache"
	"github.com/matzehuels/dllstage/pkg/errors"
	"github.com/matzehuels/dllstage/pkg/inspect"
	"github.com/matzehuels/dllstage/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "dllstage"

	inspectorObjdump = "objdump"
	inspectorBuiltin = "builtin"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	settings settings
	verbose  bool
}

// settings holds the persistent flags shared by every command, merged with
// the config file before a command runs.
type settings struct {
	objdump    string
	inspector  string
	searchDirs []string
	ldflags    string
	configPath string
	noCache    bool
	exclude    []string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := c.stageCommand()
	root.Version = buildinfo.Version
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.settings.objdump, "objdump", inspect.DefaultCommand, "inspection command, run as <cmd> -p <file>")
	pf.StringArrayVarP(&c.settings.searchDirs, "search-dir", "L", nil, "directory to search for DLLs (repeatable)")
	pf.StringVar(&c.settings.ldflags, "ldflags", "", "linker flags; <prefix>/bin is searched for every -L<prefix>/lib")
	pf.StringVar(&c.settings.inspector, "inspector", inspectorObjdump, "inspector: objdump (default), builtin")
	pf.StringVar(&c.settings.configPath, "config", "", "config file (default: ./"+defaultConfigFile+" if present)")
	pf.BoolVar(&c.settings.noCache, "no-cache", false, "disable the inspection cache")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if c.verbose {
			c.SetLogLevel(LogDebug)
			observability.SetResolveHooks(&logHooks{logger: c.Logger})
			observability.SetCacheHooks(&logHooks{logger: c.Logger})
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return c.loadSettings(cmd)
	}

	root.AddCommand(c.depsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadSettings merges the config file into the flag values.
func (c *CLI) loadSettings(cmd *cobra.Command) error {
	cfg, path, err := loadConfig(c.settings.configPath)
	if err != nil {
		return err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	cfg.apply(&c.settings, cmd.Flags().Changed)

	switch c.settings.inspector {
	case inspectorObjdump, inspectorBuiltin:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown inspector %q (want %s or %s)",
			c.settings.inspector, inspectorObjdump, inspectorBuiltin)
	}
	return nil
}

// =============================================================================
// Inspector Factory
// =============================================================================

// newInspector builds the configured inspector wrapped in the inspection
// cache. The returned cache must be closed by the caller.
func (c *CLI) newInspector() (inspect.Inspector, cache.Cache) {
	ex := inspect.NewExcluder(c.settings.exclude...)

	var (
		base inspect.Inspector
		id   string
	)
	switch c.settings.inspector {
	case inspectorBuiltin:
		p := inspect.NewPE(ex, c.Logger)
		base, id = p, p.ID()
	default:
		o := inspect.NewObjdump(c.settings.objdump, ex, c.Logger)
		base, id = o, o.ID()
	}

	ca := newCache(c.settings.noCache, c.Logger)
	return inspect.NewCached(base, id, ca, c.Logger), ca
}

// newCache opens the inspection cache. An unusable cache directory disables
// caching with a warning instead of failing the run.
func newCache(noCache bool, logger *log.Logger) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Warn("inspection cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/dllstage/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
