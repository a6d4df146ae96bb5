// Package archive reads and writes compressed tarballs of upstream sources.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/open-edge-platform/pkg-checksums/internal/utils/logger"
)

// ErrUnsafePath is returned for archive entries that would land outside the
// extraction directory.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// Extract unpacks the tarball at archivePath into dest, detecting the
// compression from the file name. It returns the top-level names created.
func Extract(archivePath, dest string) ([]string, error) {
	c, err := DetectCompression(archivePath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	r, err := NewReader(f, c)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return ExtractStream(r, dest)
}

// ExtractStream unpacks an uncompressed tar stream into dest.
func ExtractStream(r io.Reader, dest string) ([]string, error) {
	log := logger.Logger()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dest, err)
	}
	realDest, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dest, err)
	}

	top := map[string]bool{}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, tar.ErrInsecurePath) && hdr != nil {
				return nil, fmt.Errorf("%w: %s", ErrUnsafePath, hdr.Name)
			}
			return nil, fmt.Errorf("reading tar entry: %w", err)
		}

		name, ok := entryName(hdr.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsafePath, hdr.Name)
		}
		if name == "." {
			continue
		}
		target := filepath.Join(realDest, filepath.FromSlash(name))
		top[strings.SplitN(name, "/", 2)[0]] = true

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := checkPath(realDest, target); err != nil {
				return nil, err
			}
			if err := os.MkdirAll(target, dirMode(hdr)); err != nil {
				return nil, fmt.Errorf("creating directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := prepareParent(realDest, target); err != nil {
				return nil, err
			}
			if err := writeFile(target, tr, hdr); err != nil {
				return nil, err
			}
		case tar.TypeSymlink:
			if err := prepareParent(realDest, target); err != nil {
				return nil, err
			}
			if err := writeSymlink(realDest, target, hdr); err != nil {
				return nil, err
			}
		case tar.TypeLink:
			if err := prepareParent(realDest, target); err != nil {
				return nil, err
			}
			if err := writeHardlink(realDest, target, hdr); err != nil {
				return nil, err
			}
		case tar.TypeXGlobalHeader:
			continue
		default:
			log.Debugf("skipping unsupported tar entry %s (type %c)", hdr.Name, hdr.Typeflag)
		}
	}

	names := make([]string, 0, len(top))
	for n := range top {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// entryName cleans an archive member name. It reports false for absolute
// names and names that climb out of the archive root.
func entryName(raw string) (string, bool) {
	name := path.Clean(strings.TrimPrefix(raw, "./"))
	if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
		return "", false
	}
	return name, true
}

// checkPath walks p below root and fails if any existing component is a
// symlink that resolves outside root. Missing components end the walk since
// they will be created as plain directories.
func checkPath(root, p string) error {
	rel, err := filepath.Rel(root, p)
	if err != nil || !within(root, p) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, p)
	}
	if rel == "." {
		return nil
	}

	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			continue
		}
		resolved, err := filepath.EvalSymlinks(cur)
		if err != nil {
			return fmt.Errorf("%w: dangling symlink %s", ErrUnsafePath, cur)
		}
		if !within(root, resolved) {
			return fmt.Errorf("%w: %s resolves to %s", ErrUnsafePath, cur, resolved)
		}
	}
	return nil
}

// prepareParent creates the parent directory of target once its existing
// path has been checked to stay inside root. An existing symlink at target
// itself is refused so nothing is written through it.
func prepareParent(root, target string) error {
	parent := filepath.Dir(target)
	if err := checkPath(root, parent); err != nil {
		return err
	}
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", target, err)
	}
	if info, err := os.Lstat(target); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%w: %s is an existing symlink", ErrUnsafePath, target)
	}
	return nil
}

func writeFile(target string, r io.Reader, hdr *tar.Header) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode(hdr))
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	if !hdr.ModTime.IsZero() {
		_ = os.Chtimes(target, hdr.ModTime, hdr.ModTime)
	}
	return nil
}

// writeSymlink creates a relative symlink whose target, resolved against the
// real location of its directory, stays inside root.
func writeSymlink(root, target string, hdr *tar.Header) error {
	if filepath.IsAbs(hdr.Linkname) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, hdr.Name, hdr.Linkname)
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(target))
	if err != nil {
		return fmt.Errorf("resolving %s: %w", filepath.Dir(target), err)
	}
	if !within(root, filepath.Join(dir, filepath.FromSlash(hdr.Linkname))) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, hdr.Name, hdr.Linkname)
	}
	if err := os.Symlink(hdr.Linkname, target); err != nil {
		return fmt.Errorf("creating symlink %s: %w", target, err)
	}
	return nil
}

// writeHardlink links target to an earlier regular file of the same archive.
func writeHardlink(root, target string, hdr *tar.Header) error {
	name, ok := entryName(hdr.Linkname)
	if !ok || name == "." {
		return fmt.Errorf("%w: hardlink %s -> %s", ErrUnsafePath, hdr.Name, hdr.Linkname)
	}
	src := filepath.Join(root, filepath.FromSlash(name))
	if err := checkPath(root, src); err != nil {
		return err
	}
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("hardlink %s -> %s: %w", hdr.Name, hdr.Linkname, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: hardlink %s -> %s is not a regular file", ErrUnsafePath, hdr.Name, hdr.Linkname)
	}
	if _, err := os.Lstat(target); err == nil {
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("replacing %s: %w", target, err)
		}
	}
	if err := os.Link(src, target); err != nil {
		return fmt.Errorf("creating hardlink %s: %w", target, err)
	}
	return nil
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func dirMode(hdr *tar.Header) os.FileMode {
	return os.FileMode(hdr.Mode).Perm() | 0700
}

func fileMode(hdr *tar.Header) os.FileMode {
	return os.FileMode(hdr.Mode).Perm() | 0600
}

// Create writes a tar stream of srcDir to w, with every entry under prefix/.
// Entries are written in lexical order with owner information cleared, so the
// same tree always produces the same stream.
func Create(w io.Writer, srcDir, prefix string) error {
	tw := tar.NewWriter(w)

	var paths []string
	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", srcDir, err)
	}
	sort.Strings(paths)

	for _, p := range paths {
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		name := prefix
		if rel != "." {
			name = path.Join(prefix, filepath.ToSlash(rel))
		}
		if err := addEntry(tw, p, name); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finishing tar stream: %w", err)
	}
	return nil
}

func addEntry(tw *tar.Writer, p, name string) error {
	info, err := os.Lstat(p)
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&os.ModeSymlink != 0 {
		if link, err = os.Readlink(p); err != nil {
			return fmt.Errorf("reading link %s: %w", p, err)
		}
	} else if !info.Mode().IsRegular() && !info.IsDir() {
		logger.Logger().Debugf("skipping special file %s", p)
		return nil
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("building header for %s: %w", p, err)
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""
	hdr.Format = tar.FormatPAX
	hdr.AccessTime, hdr.ChangeTime = time.Time{}, time.Time{}

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header for %s: %w", p, err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("adding %s: %w", p, err)
	}
	return nil
}
