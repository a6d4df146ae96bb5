package main

import (
	"github.com/spf13/cobra"

	"github.com/open-edge-platform/pkg-checksums/internal/fixer"
	"github.com/open-edge-platform/pkg-checksums/internal/utils/logger"
)

// createFixChecksumsCommand creates the fix-checksums subcommand
func createFixChecksumsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fix-checksums [flags] [ARTIFACT ...]",
		Short: "Regenerate checksums.ini for upstream tarballs",
		Long: `Regenerate the checksums.ini manifest of every package whose declared
version matches the given upstream tarballs. Without arguments every
*.tar* file of the upstream directory is considered.

Tarballs for other versions, or without a package record, are skipped and
leave existing manifests untouched.`,
		Args: cobra.ArbitraryArgs,
		RunE: executeFixChecksums,
	}
}

// executeFixChecksums handles the fix-checksums command logic
func executeFixChecksums(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		err = cfg.RequireLayout()
	} else {
		err = cfg.RequirePackagesDir()
	}
	if err != nil {
		return err
	}

	gen := fixer.New(cfg, cmd.ErrOrStderr())
	res, err := gen.Run(args)
	if err != nil {
		return err
	}

	logger.ResetReport("UpdatedManifests")
	for _, p := range res.Updated {
		logger.AddReportItem(p)
	}
	if err := writeReport(); err != nil {
		log.Warnf("%v", err)
	}

	for _, p := range res.Failed {
		log.Warnf("checksums not updated for %s", p)
	}
	return nil
}
