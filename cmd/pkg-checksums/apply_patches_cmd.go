package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/pkg-checksums/internal/patcher"
	"github.com/open-edge-platform/pkg-checksums/internal/utils/logger"
)

// apply-patches command flags
var (
	patchDir   string
	patchStrip int
	patchDry   bool
)

// createApplyPatchesCommand creates the apply-patches subcommand
func createApplyPatchesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply-patches [flags] SOURCE_DIR",
		Short: "Apply a directory of patches to a vendored source tree",
		Long: `Apply every *.patch file of the patch directory to SOURCE_DIR, in
lexical order. The first patch that does not apply stops the run.

The patch directory defaults to the "patches" directory next to SOURCE_DIR.`,
		Args: cobra.ExactArgs(1),
		RunE: executeApplyPatches,
	}

	cmd.Flags().StringVarP(&patchDir, "patch-dir", "d", "", "Directory holding the *.patch files")
	cmd.Flags().IntVarP(&patchStrip, "strip", "p", 1, "Leading path components to strip (patch -pN)")
	cmd.Flags().BoolVar(&patchDry, "dry-run", false, "Check that patches apply without changing files")
	return cmd
}

// executeApplyPatches handles the apply-patches command logic
func executeApplyPatches(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	srcDir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving source directory: %w", err)
	}
	dir := patchDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(srcDir), "patches")
	}

	log.Infof("applying patches from %s to %s", dir, srcDir)
	applied, err := patcher.Apply(srcDir, dir, patcher.Options{
		Strip:    patchStrip,
		DryRun:   patchDry,
		Progress: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	log.Infof("✓ %d patches applied", len(applied))
	return nil
}
