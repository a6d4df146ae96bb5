package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/pkg-checksums/internal/config"
	"github.com/open-edge-platform/pkg-checksums/internal/utils/logger"
)

// createValidateConfigCommand creates the validate-config subcommand
func createValidateConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config [flags] CONFIG_FILE",
		Short: "Validate a configuration file",
		Long: `Validate a pkg-checksums configuration file against its schema and
check the values without running anything.`,
		Args: cobra.ExactArgs(1),
		RunE: executeValidateConfig,
	}
}

// executeValidateConfig handles the validate-config command logic
func executeValidateConfig(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	path := args[0]

	log.Infof("validating config file: %s", path)
	cfg, err := config.ValidateConfigFile(path)
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	log.Infof("✓ Config validation successful for %s", path)
	if cur, err := currentConfig(); err == nil && config.NewConfigHelpers(cur).IsDebugMode() {
		log.Infof("root: %q", cfg.Root)
		log.Infof("upstream: %q packages: %q", cfg.Upstream(), cfg.Packages())
		log.Infof("repack compression: %s", cfg.Repack.Compression)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "valid configuration")
	return nil
}
