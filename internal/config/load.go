package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"covflow/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COVFLOW"

// envKeys are the settings that may be overridden from the environment.
var envKeys = []string{"root", "report_types", "fail_fast", "log_json", "summary_file"}

// Load builds the configuration for a run started in dir (empty means the
// current directory). Precedence, lowest to highest: Default, the nearest
// covflow.toml at or above dir, COVFLOW_* environment variables.
func Load(dir string) (*Config, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "resolving working directory"), errors.ErrConfiguration)
		}
		dir = wd
	}
	return LoadFile(FindFile(dir), dir)
}

// LoadFile is Load with an explicit configuration file. An empty path means
// defaults and environment only.
func LoadFile(path, dir string) (*Config, error) {
	def := Default()
	v := newViper(def)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "reading %s", path), errors.ErrConfiguration)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decoding configuration"), errors.ErrConfiguration)
	}
	// Lists replace the defaults wholesale; merging entries by index would
	// mix projects from two sources.
	if !v.IsSet("projects") {
		cfg.Projects = def.Projects
	}
	if !v.IsSet("backends") {
		cfg.Backends = def.Backends
	}
	cfg.Source = path

	root, err := resolveRoot(cfg.Root, path, dir)
	if err != nil {
		return nil, err
	}
	cfg.Root = root
	return &cfg, nil
}

// newViper returns a viper instance carrying the scalar defaults and the
// environment bindings.
func newViper(def *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")

	v.SetDefault("root", def.Root)
	v.SetDefault("report_types", def.ReportTypes)
	v.SetDefault("reports_dir", def.ReportsDir)
	v.SetDefault("fail_fast", def.FailFast)
	v.SetDefault("log_json", def.LogJSON)
	v.SetDefault("summary_file", def.SummaryFile)

	for _, k := range envKeys {
		_ = v.BindEnv(k, EnvPrefix+"_"+strings.ToUpper(k))
	}
	return v
}

// FindFile looks for covflow.toml in dir and each of its parents and returns
// the first match, or "" when there is none.
func FindFile(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// resolveRoot makes root absolute. A configured relative root is relative to
// the file that set it. An empty root is detected from dir.
func resolveRoot(root, file, dir string) (string, error) {
	if root == "" {
		return DetectRoot(dir)
	}
	if !filepath.IsAbs(root) {
		base := dir
		if file != "" {
			base = filepath.Dir(file)
		}
		root = filepath.Join(base, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "resolving root %s", root), errors.ErrConfiguration)
	}
	return abs, nil
}
