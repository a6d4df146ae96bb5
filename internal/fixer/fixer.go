// Package fixer regenerates package checksum manifests from upstream tarballs.
//
// An artifact only updates the manifest of its package when its file name
// carries the package's declared version (without any local ".pNN" patch
// level). Everything else is skipped and existing manifests stay untouched.
package fixer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/open-edge-platform/pkg-checksums/internal/checksum"
	"github.com/open-edge-platform/pkg-checksums/internal/config"
	"github.com/open-edge-platform/pkg-checksums/internal/manifest"
	"github.com/open-edge-platform/pkg-checksums/internal/pkgs"
	"github.com/open-edge-platform/pkg-checksums/internal/utils/logger"
)

type Outcome int

const (
	OutcomeUpdated Outcome = iota
	OutcomeNoPackage
	OutcomeVersionMismatch
	OutcomeNotArtifact
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeNoPackage:
		return "no-package"
	case OutcomeVersionMismatch:
		return "version-mismatch"
	case OutcomeNotArtifact:
		return "not-artifact"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result summarises one run.
type Result struct {
	// Updated lists the manifest files written, in processing order.
	Updated []string
	Skipped map[Outcome]int
	Failed  []string
}

func newResult() *Result {
	return &Result{Skipped: map[Outcome]int{}}
}

// Generator writes checksums.ini files into package records.
type Generator struct {
	PackagesDir string
	UpstreamDir string
	// Progress receives one "Updating checksum of <file>" line per matching
	// artifact. Nil discards.
	Progress io.Writer
}

// New returns a generator for the directories of cfg.
func New(cfg *config.Config, progress io.Writer) *Generator {
	return &Generator{
		PackagesDir: cfg.Packages(),
		UpstreamDir: cfg.Upstream(),
		Progress:    progress,
	}
}

// DefaultArtifacts lists every tarball of the upstream directory.
func (g *Generator) DefaultArtifacts() ([]string, error) {
	return pkgs.ListArtifacts(g.UpstreamDir)
}

// Run processes paths one at a time, in order. With no paths it processes
// DefaultArtifacts. Per-artifact problems never abort the run; they are
// logged and counted in the result.
func (g *Generator) Run(paths []string) (*Result, error) {
	log := logger.Logger()

	if len(paths) == 0 {
		var err error
		if paths, err = g.DefaultArtifacts(); err != nil {
			return nil, err
		}
		log.Debugf("found %d upstream tarballs in %s", len(paths), g.UpstreamDir)
	}

	res := newResult()
	for _, p := range paths {
		outcome, manifestPath, err := g.Process(p)
		switch outcome {
		case OutcomeUpdated:
			res.Updated = append(res.Updated, manifestPath)
		case OutcomeFailed:
			log.Warnf("updating checksums for %s failed: %v", p, err)
			res.Failed = append(res.Failed, p)
		default:
			log.Debugf("skipping %s: %s", p, outcome)
			res.Skipped[outcome]++
		}
	}

	log.Infof("updated %d manifests, skipped %d, failed %d",
		len(res.Updated), len(paths)-len(res.Updated)-len(res.Failed), len(res.Failed))
	return res, nil
}

// Process handles a single artifact and returns what happened to it. The
// manifest path is set only for OutcomeUpdated.
func (g *Generator) Process(path string) (Outcome, string, error) {
	log := logger.Logger()

	artifact, err := pkgs.ParseArtifact(path)
	if err != nil {
		return OutcomeNotArtifact, "", err
	}

	pkg, err := pkgs.Load(g.PackagesDir, artifact.PackageID())
	if err != nil {
		if errors.Is(err, pkgs.ErrNoPackage) {
			return OutcomeNoPackage, "", nil
		}
		return OutcomeFailed, "", err
	}

	version := pkg.CanonicalVersion()
	if !artifact.MatchesVersion(version) {
		log.Debugf("%s does not match declared version %s of %s", artifact.Base, version, pkg.Name)
		return OutcomeVersionMismatch, "", nil
	}

	if g.Progress != nil {
		fmt.Fprintf(g.Progress, "Updating checksum of %s\n", artifact.Base)
	}

	sums, err := checksum.ComputeFile(artifact.Path)
	if err != nil {
		return OutcomeFailed, "", err
	}

	m := manifest.New(artifact.TarballTemplate(), sums)
	manifestPath := pkg.ManifestPath()
	if raw, err := os.ReadFile(manifestPath); err == nil {
		if bytes.Equal(raw, m.Marshal()) {
			log.Debugf("manifest %s unchanged", manifestPath)
			return OutcomeUpdated, manifestPath, nil
		}
		if old, err := manifest.Parse(bytes.NewReader(raw)); err != nil {
			log.Warnf("replacing malformed manifest %s: %v", manifestPath, err)
		} else if old.SHA1 != m.SHA1 {
			log.Infof("checksums of %s changed (sha1 %s -> %s)", pkg.Name, old.SHA1, m.SHA1)
		}
	}

	if err := manifest.WriteFile(manifestPath, m); err != nil {
		return OutcomeFailed, "", err
	}
	log.Debugf("wrote %s (sha1=%s size=%d)", manifestPath, sums.SHA1, sums.Size)
	return OutcomeUpdated, manifestPath, nil
}
