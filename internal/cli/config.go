package cli

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/dllstage/pkg/errors"
)

// defaultConfigFile is read from the working directory when --config is not given.
const defaultConfigFile = "dllstage.toml"

// fileConfig is the on-disk configuration.
//
//	objdump     = "x86_64-w64-mingw32-objdump"
//	inspector   = "objdump"
//	search_dirs = ["/opt/gtk/bin"]
//	ldflags     = "-L/usr/x86_64-w64-mingw32/sys-root/mingw/lib"
//	exclude     = ["opengl32.dll"]
//	cache       = true
type fileConfig struct {
	Objdump    string   `toml:"objdump"`
	Inspector  string   `toml:"inspector"`
	SearchDirs []string `toml:"search_dirs"`
	LDFlags    string   `toml:"ldflags"`
	Exclude    []string `toml:"exclude"`
	Cache      *bool    `toml:"cache"`
}

// loadConfig reads the config file at path. An empty path means
// [defaultConfigFile], which may be absent. The path actually read is
// returned, or "" if no file was read.
func loadConfig(path string) (*fileConfig, string, error) {
	cfg := &fileConfig{}
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, "", nil
		}
		return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, "", errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, path, nil
}

// apply copies config values into s for every flag the user did not set.
func (f *fileConfig) apply(s *settings, changed func(flag string) bool) {
	if f.Objdump != "" && !changed("objdump") {
		s.objdump = f.Objdump
	}
	if f.Inspector != "" && !changed("inspector") {
		s.inspector = f.Inspector
	}
	if len(f.SearchDirs) > 0 && !changed("search-dir") {
		s.searchDirs = f.SearchDirs
	}
	if f.LDFlags != "" && !changed("ldflags") {
		s.ldflags = f.LDFlags
	}
	if f.Cache != nil && !changed("no-cache") {
		s.noCache = !*f.Cache
	}
	s.exclude = f.Exclude
}
