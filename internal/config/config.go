package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EnvRoot  = "SAGE_ROOT"
	EnvShare = "SAGE_SHARE"
)

// ErrMissingRoot is returned when a command needs the distribution root and
// neither the config file nor SAGE_ROOT provides it.
var ErrMissingRoot = errors.New("distribution root is not set (set SAGE_ROOT or 'root' in the config file)")

// Config is the explicit configuration passed to every command.
type Config struct {
	Root        string        `yaml:"root,omitempty"`
	Share       string        `yaml:"share,omitempty"`
	UpstreamDir string        `yaml:"upstreamDir,omitempty"`
	PackagesDir string        `yaml:"packagesDir,omitempty"`
	Logging     LoggingConfig `yaml:"logging,omitempty"`
	Repack      RepackConfig  `yaml:"repack,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

type RepackConfig struct {
	Compression string `yaml:"compression,omitempty"`
	WorkDir     string `yaml:"workDir,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Repack:  RepackConfig{Compression: "gz"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is not empty), then the environment read through getenv.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		fileCfg, err := parseYAMLConfig(data)
		if err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		cfg.merge(fileCfg)
	}

	if getenv != nil {
		cfg.ApplyEnv(getenv)
	}
	return cfg, nil
}

// parseYAMLConfig schema-checks and decodes raw YAML.
func parseYAMLConfig(data []byte) (*Config, error) {
	if err := ValidateConfigYAML(data); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv lets SAGE_ROOT and SAGE_SHARE override file values.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvRoot)); v != "" {
		c.Root = v
	}
	if v := strings.TrimSpace(getenv(EnvShare)); v != "" {
		c.Share = v
	}
}

func (c *Config) merge(o *Config) {
	if o.Root != "" {
		c.Root = o.Root
	}
	if o.Share != "" {
		c.Share = o.Share
	}
	if o.UpstreamDir != "" {
		c.UpstreamDir = o.UpstreamDir
	}
	if o.PackagesDir != "" {
		c.PackagesDir = o.PackagesDir
	}
	if o.Logging.Level != "" {
		c.Logging.Level = o.Logging.Level
	}
	if o.Repack.Compression != "" {
		c.Repack.Compression = o.Repack.Compression
	}
	if o.Repack.WorkDir != "" {
		c.Repack.WorkDir = o.Repack.WorkDir
	}
}

// Validate checks the values that do not depend on the command being run.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q (expected debug|info|warn|error)", c.Logging.Level)
	}
	switch c.Repack.Compression {
	case "", "gz", "xz", "zst", "none":
	default:
		return fmt.Errorf("invalid repack compression %q (expected gz|xz|zst|none)", c.Repack.Compression)
	}
	return nil
}

// RequireLayout checks that the upstream and packages directories can be resolved.
func (c *Config) RequireLayout() error {
	if c.Root == "" && (c.UpstreamDir == "" || c.PackagesDir == "") {
		return ErrMissingRoot
	}
	return nil
}

// RequirePackagesDir checks that the packages directory can be resolved.
func (c *Config) RequirePackagesDir() error {
	if c.Root == "" && c.PackagesDir == "" {
		return ErrMissingRoot
	}
	return nil
}

// Upstream returns the directory holding upstream tarballs.
func (c *Config) Upstream() string {
	if c.UpstreamDir != "" {
		return c.UpstreamDir
	}
	return filepath.Join(c.Root, "upstream")
}

// Packages returns the directory holding package records.
func (c *Config) Packages() string {
	if c.PackagesDir != "" {
		return c.PackagesDir
	}
	return filepath.Join(c.Root, "build", "pkgs")
}
