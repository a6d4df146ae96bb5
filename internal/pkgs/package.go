// Package pkgs reads package records and names upstream artifacts.
package pkgs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	VersionFile  = "package-version.txt"
	ManifestFile = "checksums.ini"
)

// ErrNoPackage means there is no record directory for a package identifier.
var ErrNoPackage = errors.New("package record not found")

var patchLevelRe = regexp.MustCompile(`\.p[0-9]+$`)

// Package is one directory under the packages tree.
type Package struct {
	Name    string
	Dir     string
	Version string
}

// Load reads the record for id from packagesDir. It returns ErrNoPackage when
// the directory does not exist.
func Load(packagesDir, id string) (*Package, error) {
	dir := filepath.Join(packagesDir, id)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoPackage, id)
		}
		return nil, fmt.Errorf("checking package directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoPackage, dir)
	}

	data, err := os.ReadFile(filepath.Join(dir, VersionFile))
	if err != nil {
		return nil, fmt.Errorf("reading version of package %s: %w", id, err)
	}

	return &Package{
		Name:    id,
		Dir:     dir,
		Version: firstLine(string(data)),
	}, nil
}

// CanonicalVersion is the declared version without a local ".pNN" patch level.
func (p *Package) CanonicalVersion() string {
	return StripPatchLevel(p.Version)
}

// ManifestPath is where the package's checksum manifest lives.
func (p *Package) ManifestPath() string {
	return filepath.Join(p.Dir, ManifestFile)
}

// StripPatchLevel removes a trailing ".p<digits>" from version.
func StripPatchLevel(version string) string {
	return patchLevelRe.ReplaceAllString(version, "")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
