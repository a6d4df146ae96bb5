package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/open-edge-platform/pkg-checksums/internal/config"
	"github.com/open-edge-platform/pkg-checksums/internal/utils/logger"
)

// Global flags
var (
	configFile string
	logLevel   string
	verbose    bool
	reportFile string
)

// appConfig is loaded once per invocation by the persistent pre-run hook.
var appConfig *config.Config

func main() {
	rootCmd := createRootCommand()
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// createRootCommand builds the command tree. Invoked without a subcommand the
// tool behaves like fix-checksums.
func createRootCommand() *cobra.Command {
	appConfig = nil
	rootCmd := &cobra.Command{
		Use:   "pkg-checksums [flags] [ARTIFACT ...]",
		Short: "Packaging helpers for upstream source tarballs",
		Long: `pkg-checksums maintains the package records of the distribution tree.

Without a subcommand it regenerates checksums.ini for the given upstream
tarballs, or for every tarball in $SAGE_ROOT/upstream when none are given.`,
		Args:          cobra.ArbitraryArgs,
		RunE:          executeFixChecksums,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	addGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(createFixChecksumsCommand())
	rootCmd.AddCommand(createApplyPatchesCommand())
	rootCmd.AddCommand(createRepackCommand())
	rootCmd.AddCommand(createValidateConfigCommand())

	attachLoggingHooks(rootCmd)
	return rootCmd
}

func addGlobalFlags(fs *pflag.FlagSet) {
	configFile, logLevel, verbose, reportFile = "", "", false, ""

	fs.StringVar(&configFile, "config", "", "Configuration file (YAML)")
	fs.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	fs.BoolVarP(&verbose, "verbose", "v", false, "Verbose output (same as --log-level debug)")
	fs.StringVar(&reportFile, "report", "", "Append the list of updated manifests to this file")
}

// attachLoggingHooks installs the config/logging setup on the root command and
// every subcommand.
func attachLoggingHooks(root *cobra.Command) {
	root.PersistentPreRunE = setupRun
	for _, sub := range root.Commands() {
		sub.PersistentPreRunE = setupRun
	}
}

func setupRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, os.Getenv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if level := resolveRequestedLogLevel(cmd); level != "" {
		cfg.Logging.Level = level
	}
	if err := logger.Init(config.NewConfigHelpers(cfg).LogLevel()); err != nil {
		return err
	}

	appConfig = cfg
	logger.Logger().Debugf("configuration: root=%q upstream=%q packages=%q", cfg.Root, cfg.Upstream(), cfg.Packages())
	return nil
}

// resolveRequestedLogLevel returns the level asked for on the command line,
// or "" when the configured level should be used.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd == nil {
		return ""
	}
	flag := cmd.Flags().Lookup("verbose")
	if flag == nil || !flag.Changed {
		return ""
	}
	if v, err := cmd.Flags().GetBool("verbose"); err == nil && v {
		return "debug"
	}
	return ""
}

// currentConfig returns the loaded configuration, falling back to the
// environment when a command runs without the pre-run hook.
func currentConfig() (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	cfg, err := config.Load(configFile, os.Getenv)
	if err != nil {
		return nil, err
	}
	appConfig = cfg
	return cfg, nil
}

func writeReport() error {
	if reportFile == "" {
		return nil
	}
	if err := logger.WriteReportToFile(reportFile); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
