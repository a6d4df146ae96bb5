// Package patcher applies a directory of patch files to a vendored source tree.
package patcher

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-edge-platform/pkg-checksums/internal/utils/logger"
	"github.com/open-edge-platform/pkg-checksums/internal/utils/shell"
)

// PatchGlob selects the files applied from a patch directory.
const PatchGlob = "*.patch"

var (
	ErrNoPatchDir   = errors.New("patch directory does not exist")
	ErrNoSourceDir  = errors.New("source directory does not exist")
	ErrPatchMissing = errors.New("patch command not found")
)

type Options struct {
	// Strip is the -p level handed to patch. Values below zero are invalid.
	Strip  int
	DryRun bool
	// Progress receives one "Applying <file>" line per patch. Nil discards.
	Progress io.Writer
}

// DefaultOptions strips one leading path component, as for git-style patches.
func DefaultOptions() Options {
	return Options{Strip: 1}
}

// ListPatches returns the patch files of patchDir in lexical order.
func ListPatches(patchDir string) ([]string, error) {
	info, err := os.Stat(patchDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoPatchDir, patchDir)
		}
		return nil, fmt.Errorf("checking patch directory %s: %w", patchDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoPatchDir, patchDir)
	}

	pattern := filepath.Join(patchDir, PatchGlob)
	patches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sort.Strings(patches)
	return patches, nil
}

// Apply runs patch for every file of patchDir inside srcDir, one at a time.
// It stops at the first patch that fails and returns the patches applied
// before it.
func Apply(srcDir, patchDir string, opts Options) ([]string, error) {
	log := logger.Logger()

	if opts.Strip < 0 {
		return nil, fmt.Errorf("invalid strip level %d", opts.Strip)
	}
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoSourceDir, srcDir)
	}

	patches, err := ListPatches(patchDir)
	if err != nil {
		return nil, err
	}
	if len(patches) == 0 {
		log.Infof("no patches found in %s", patchDir)
		return nil, nil
	}

	if !shell.IsCommandExist("patch") {
		return nil, ErrPatchMissing
	}

	var applied []string
	for _, p := range patches {
		abs, err := filepath.Abs(p)
		if err != nil {
			return applied, fmt.Errorf("resolving patch %s: %w", p, err)
		}

		fmt.Fprintf(progress, "Applying %s\n", filepath.Base(p))
		cmd := patchCommand(abs, opts)
		if _, err := shell.ExecCmdWithStream(cmd, srcDir, nil); err != nil {
			log.Errorf("applying %s failed: %v", p, err)
			return applied, fmt.Errorf("error applying %s: %w", filepath.Base(p), err)
		}
		applied = append(applied, p)
	}

	log.Infof("applied %d patches to %s", len(applied), srcDir)
	return applied, nil
}

func patchCommand(patchPath string, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "patch -p%d --batch --forward", opts.Strip)
	if opts.DryRun {
		b.WriteString(" --dry-run")
	}
	b.WriteString(" -i ")
	b.WriteString(quote(patchPath))
	return b.String()
}

// quote wraps s in single quotes for /bin/sh.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
