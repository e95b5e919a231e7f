// Package config provides configuration file parsing for drivermatch.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/drivermatch/internal/catalog"
	"github.com/blackwell-systems/drivermatch/internal/hwdb"
	"github.com/blackwell-systems/drivermatch/internal/modalias"
	"github.com/blackwell-systems/drivermatch/internal/plugin"
	"github.com/blackwell-systems/drivermatch/internal/policy"
	"github.com/blackwell-systems/drivermatch/internal/sysfs"
)

// SystemPath is the system-wide config file.
const SystemPath = "/etc/drivermatch/config.yaml"

// Config holds the drivermatch settings.
type Config struct {
	SysfsRoot      string        `yaml:"sysfs_root"`
	HwdataDir      string        `yaml:"hwdata_dir"`
	XorgLog        string        `yaml:"xorg_log"`
	DetectDir      string        `yaml:"detect_dir"`
	Catalog        string        `yaml:"catalog"`
	DistroRepos    []string      `yaml:"distro_repos"`
	PluginTimeout  time.Duration `yaml:"plugin_timeout"`
	IndexCacheSize int           `yaml:"index_cache_size"`

	// Path is the file the config was read from, empty for defaults only.
	Path string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		SysfsRoot:      sysfs.DefaultRoot,
		HwdataDir:      hwdb.DefaultDir,
		XorgLog:        policy.DefaultXorgLog,
		DetectDir:      plugin.DefaultDir,
		Catalog:        catalog.DefaultPath,
		DistroRepos:    append([]string(nil), policy.DefaultDistroRepos...),
		PluginTimeout:  plugin.DefaultTimeout,
		IndexCacheSize: modalias.DefaultCacheSize,
	}
}

// Dir returns the drivermatch config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/drivermatch if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "drivermatch"), nil
}

// Load reads the config at path. An empty path tries the user config
// ({Dir}/config.yaml) and then SystemPath; when neither exists the
// defaults are used. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfig()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		cfg.Path = path
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfig() string {
	var candidates []string
	if dir, err := Dir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "config.yaml"))
	}
	candidates = append(candidates, SystemPath)

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// applyEnv lets the environment variables the individual components honour
// take precedence over the file.
func (c *Config) applyEnv() {
	for env, field := range map[string]*string{
		"SYSFS_PATH":             &c.SysfsRoot,
		"DRIVERMATCH_HWDATA_DIR": &c.HwdataDir,
		"DRIVERMATCH_XORG_LOG":   &c.XorgLog,
		"DRIVERMATCH_DETECT_DIR": &c.DetectDir,
		"DRIVERMATCH_CATALOG":    &c.Catalog,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
}

// applyDefaults fills settings the file set to empty values.
func (c *Config) applyDefaults() {
	d := Default()
	if c.SysfsRoot == "" {
		c.SysfsRoot = d.SysfsRoot
	}
	if c.HwdataDir == "" {
		c.HwdataDir = d.HwdataDir
	}
	if c.XorgLog == "" {
		c.XorgLog = d.XorgLog
	}
	if c.DetectDir == "" {
		c.DetectDir = d.DetectDir
	}
	if c.Catalog == "" {
		c.Catalog = d.Catalog
	}
	if len(c.DistroRepos) == 0 {
		c.DistroRepos = d.DistroRepos
	}
	if c.PluginTimeout == 0 {
		c.PluginTimeout = d.PluginTimeout
	}
	if c.IndexCacheSize == 0 {
		c.IndexCacheSize = d.IndexCacheSize
	}
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.PluginTimeout < 0 {
		errs = append(errs, fmt.Errorf("plugin_timeout must not be negative, got %s", c.PluginTimeout))
	}
	if c.IndexCacheSize < 0 {
		errs = append(errs, fmt.Errorf("index_cache_size must not be negative, got %d", c.IndexCacheSize))
	}
	return errors.Join(errs...)
}
