package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/pkg-checksums/internal/archive"
	"github.com/open-edge-platform/pkg-checksums/internal/config"
	"github.com/open-edge-platform/pkg-checksums/internal/fixer"
	"github.com/open-edge-platform/pkg-checksums/internal/repack"
	"github.com/open-edge-platform/pkg-checksums/internal/utils/logger"
)

// repack command flags
var (
	repackName        string
	repackVersion     string
	repackCompression string
	repackOut         string
	repackForce       bool
	repackFix         bool
	repackQuiet       bool
)

// createRepackCommand creates the repack subcommand
func createRepackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repack [flags] SOURCE",
		Short: "Re-package an upstream source as <name>-<version>.tar<suffix>",
		Long: `Re-package an upstream source directory or tarball into a versioned
tarball whose entries live under <name>-<version>/.

The output goes to the upstream directory unless --out is given. With
--fix-checksums the package's checksums.ini is refreshed afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: executeRepack,
	}

	cmd.Flags().StringVar(&repackName, "name", "", "Package name (required)")
	cmd.Flags().StringVar(&repackVersion, "version", "", "Upstream version (required)")
	cmd.Flags().StringVar(&repackCompression, "compression", "", "Output compression: gz, xz, zst or none (default from config)")
	cmd.Flags().StringVar(&repackOut, "out", "", "Output directory (default: upstream directory)")
	cmd.Flags().BoolVar(&repackForce, "force", false, "Overwrite an existing tarball")
	cmd.Flags().BoolVar(&repackFix, "fix-checksums", false, "Regenerate the package manifest for the new tarball")
	cmd.Flags().BoolVarP(&repackQuiet, "quiet", "q", false, "Do not show a progress bar")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

// executeRepack handles the repack command logic
func executeRepack(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	helpers := config.NewConfigHelpers(cfg)

	compName := repackCompression
	if compName == "" {
		compName = cfg.Repack.Compression
	}
	comp, err := archive.ParseCompression(compName)
	if err != nil {
		return err
	}

	outDir := repackOut
	if outDir == "" {
		if err := cfg.RequireLayout(); err != nil {
			return fmt.Errorf("no --out given and %w", err)
		}
		if outDir, err = helpers.UpstreamDir(); err != nil {
			return err
		}
	}

	workDir, err := helpers.CreateWorkDir()
	if err != nil {
		return err
	}

	opts := repack.Options{
		Source:      args[0],
		Name:        repackName,
		Version:     repackVersion,
		Compression: comp,
		OutDir:      outDir,
		WorkDir:     workDir,
		Force:       repackForce,
	}
	if !repackQuiet {
		opts.Progress = cmd.ErrOrStderr()
	}

	res, err := repack.Run(opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Path)

	if !repackFix {
		return nil
	}
	if err := cfg.RequirePackagesDir(); err != nil {
		return err
	}
	gen := fixer.New(cfg, cmd.ErrOrStderr())
	outcome, manifestPath, err := gen.Process(res.Path)
	if err != nil {
		return fmt.Errorf("updating checksums for %s: %w", res.Path, err)
	}
	if outcome != fixer.OutcomeUpdated {
		log.Warnf("checksums not updated for %s: %s", res.Path, outcome)
		return nil
	}

	logger.ResetReport("UpdatedManifests")
	logger.AddReportItem(manifestPath)
	if err := writeReport(); err != nil {
		log.Warnf("%v", err)
	}
	log.Infof("✓ updated %s", manifestPath)
	return nil
}
