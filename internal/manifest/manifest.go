// Package manifest reads and writes the checksums.ini file kept in every
// package record. The file holds four key=value lines in a fixed order:
//
//	tarball=<pkg>-VERSION.tar<suffix>
//	sha1=<hex>
//	md5=<hex>
//	cksum=<decimal>
package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/open-edge-platform/pkg-checksums/internal/checksum"
)

const (
	KeyTarball = "tarball"
	KeySHA1    = "sha1"
	KeyMD5     = "md5"
	KeyCksum   = "cksum"
)

type Manifest struct {
	Tarball string
	SHA1    string
	MD5     string
	Cksum   uint32
}

// New builds a manifest from a tarball template and the artifact digests.
func New(tarball string, sums checksum.Sums) Manifest {
	return Manifest{
		Tarball: tarball,
		SHA1:    sums.SHA1,
		MD5:     sums.MD5,
		Cksum:   sums.Cksum,
	}
}

// Marshal renders the manifest in its on-disk form.
func (m Manifest) Marshal() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s=%s\n", KeyTarball, m.Tarball)
	fmt.Fprintf(&buf, "%s=%s\n", KeySHA1, m.SHA1)
	fmt.Fprintf(&buf, "%s=%s\n", KeyMD5, m.MD5)
	fmt.Fprintf(&buf, "%s=%d\n", KeyCksum, m.Cksum)
	return buf.Bytes()
}

// Parse reads a manifest. Blank lines are ignored and unknown keys rejected.
func Parse(r io.Reader) (Manifest, error) {
	var m Manifest
	seen := map[string]bool{}

	s := bufio.NewScanner(r)
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return Manifest{}, fmt.Errorf("line %d: expected key=value, got %q", lineNo, line)
		}
		if seen[key] {
			return Manifest{}, fmt.Errorf("line %d: duplicate key %q", lineNo, key)
		}
		seen[key] = true

		switch key {
		case KeyTarball:
			m.Tarball = val
		case KeySHA1:
			m.SHA1 = val
		case KeyMD5:
			m.MD5 = val
		case KeyCksum:
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return Manifest{}, fmt.Errorf("line %d: invalid cksum %q: %w", lineNo, val, err)
			}
			m.Cksum = uint32(n)
		default:
			return Manifest{}, fmt.Errorf("line %d: unknown key %q", lineNo, key)
		}
	}
	if err := s.Err(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// WriteFile replaces the manifest at path. The content goes to a temporary
// file in the same directory which is then renamed over path, so readers see
// either the old manifest or the new one.
func WriteFile(path string, m Manifest) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp manifest in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(m.Marshal()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting manifest mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
