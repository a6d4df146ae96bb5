package pkgs

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotArtifact is returned for file names that do not contain ".tar".
var ErrNotArtifact = errors.New("not an upstream tarball name")

// TarballGlob matches upstream tarballs inside the upstream directory.
const TarballGlob = "*.tar*"

// VersionToken replaces the literal version in manifest tarball templates.
const VersionToken = "VERSION"

// Artifact is an upstream tarball named <name>-<version>.tar<suffix>.
type Artifact struct {
	Path   string
	Base   string
	Name   string // text before the first '-', original case
	Stem   string // base name up to the first ".tar"
	Suffix string // text after that ".tar", e.g. ".gz"
}

// ParseArtifact splits an artifact path into its naming parts.
func ParseArtifact(path string) (Artifact, error) {
	base := filepath.Base(path)
	idx := strings.Index(base, ".tar")
	if idx < 0 {
		return Artifact{}, fmt.Errorf("%w: %s", ErrNotArtifact, base)
	}

	name := base
	if dash := strings.IndexByte(base, '-'); dash >= 0 {
		name = base[:dash]
	}

	return Artifact{
		Path:   path,
		Base:   base,
		Name:   name,
		Stem:   base[:idx],
		Suffix: base[idx+len(".tar"):],
	}, nil
}

// PackageID is the lowercase identifier of the package record the artifact belongs to.
func (a Artifact) PackageID() string {
	return strings.ToLower(a.Name)
}

// MatchesVersion reports whether the artifact stem is exactly <name>-<version>.
func (a Artifact) MatchesVersion(version string) bool {
	return a.Stem == a.Name+"-"+version
}

// TarballTemplate is the artifact name with its version replaced by VersionToken.
func (a Artifact) TarballTemplate() string {
	return a.Name + "-" + VersionToken + ".tar" + a.Suffix
}

// ListArtifacts returns the tarballs in dir in lexical order.
func ListArtifacts(dir string) ([]string, error) {
	pattern := filepath.Join(dir, TarballGlob)
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	return paths, nil
}
