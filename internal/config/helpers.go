package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigHelpers provides convenient access to the resolved configuration
type ConfigHelpers struct {
	config *Config
}

// NewConfigHelpers creates a new config helpers instance
func NewConfigHelpers(config *Config) *ConfigHelpers {
	return &ConfigHelpers{config: config}
}

// UpstreamDir returns the absolute path to the upstream tarball directory
func (c *ConfigHelpers) UpstreamDir() (string, error) {
	return filepath.Abs(c.config.Upstream())
}

// PackagesDir returns the absolute path to the package records directory
func (c *ConfigHelpers) PackagesDir() (string, error) {
	return filepath.Abs(c.config.Packages())
}

// WorkDir returns the directory used for repack staging
func (c *ConfigHelpers) WorkDir() string {
	if c.config.Repack.WorkDir == "" {
		return os.TempDir()
	}
	return c.config.Repack.WorkDir
}

// LogLevel returns the configured log level
func (c *ConfigHelpers) LogLevel() string {
	return c.config.Logging.Level
}

// IsDebugMode returns true if debug logging is enabled
func (c *ConfigHelpers) IsDebugMode() bool {
	return c.config.Logging.Level == "debug"
}

// CreateWorkDir ensures the repack work directory exists
func (c *ConfigHelpers) CreateWorkDir() (string, error) {
	workDir, err := filepath.Abs(c.WorkDir())
	if err != nil {
		return "", fmt.Errorf("resolving work directory: %w", err)
	}
	return workDir, createDirIfNotExists(workDir)
}

// Helper function to create directories
func createDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
