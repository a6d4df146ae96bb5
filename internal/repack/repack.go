// Package repack turns an already retrieved upstream source into a versioned
// tarball named <name>-<version>.tar<suffix>.
package repack

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/open-edge-platform/pkg-checksums/internal/archive"
	"github.com/open-edge-platform/pkg-checksums/internal/utils/logger"
)

var ErrOutputExists = errors.New("output tarball already exists")

type Options struct {
	// Source is a directory or a tarball with a recognised suffix.
	Source      string
	Name        string
	Version     string
	Compression archive.Compression
	OutDir      string
	// WorkDir holds the staging directory used to unpack archive sources.
	WorkDir string
	Force   bool
	// Progress receives a byte progress bar. Nil disables it.
	Progress io.Writer
}

type Result struct {
	Path string
	Size int64
	// SourceRoot is the directory whose content became <name>-<version>/.
	SourceRoot string
}

// OutputName is the tarball file name for opts.
func (o Options) OutputName() string {
	return o.Name + "-" + o.Version + o.Compression.Suffix()
}

func (o Options) validate() error {
	if o.Name == "" || o.Version == "" {
		return errors.New("package name and version are required")
	}
	if strings.ContainsAny(o.Name, "-/\\") {
		return fmt.Errorf("package name %q must not contain '-' or path separators", o.Name)
	}
	if strings.ContainsAny(o.Version, "/\\") {
		return fmt.Errorf("version %q must not contain path separators", o.Version)
	}
	if !o.Compression.Writable() {
		return fmt.Errorf("cannot write %q tarballs", string(o.Compression))
	}
	if o.Source == "" {
		return errors.New("source is required")
	}
	return nil
}

// Run re-packages opts.Source. Archive sources are unpacked into a staging
// directory that is removed before Run returns.
func Run(opts Options) (*Result, error) {
	log := logger.Logger()

	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	outPath := filepath.Join(opts.OutDir, opts.OutputName())
	if _, err := os.Stat(outPath); err == nil && !opts.Force {
		return nil, fmt.Errorf("%w: %s", ErrOutputExists, outPath)
	}

	srcRoot, cleanup, err := resolveSource(opts.Source, opts.WorkDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	log.Infof("repacking %s as %s", srcRoot, opts.OutputName())
	size, err := writeTarball(outPath, srcRoot, opts)
	if err != nil {
		return nil, err
	}
	log.Infof("wrote %s (%d bytes)", outPath, size)

	return &Result{Path: outPath, Size: size, SourceRoot: srcRoot}, nil
}

func resolveSource(source, workDir string) (string, func(), error) {
	noop := func() {}

	info, err := os.Stat(source)
	if err != nil {
		return "", noop, fmt.Errorf("source %s: %w", source, err)
	}
	if info.IsDir() {
		return source, noop, nil
	}

	if _, err := archive.DetectCompression(source); err != nil {
		return "", noop, err
	}

	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", noop, fmt.Errorf("creating work directory %s: %w", workDir, err)
	}
	staging := filepath.Join(workDir, ".repack-"+uuid.NewString())
	cleanup := func() {
		if err := os.RemoveAll(staging); err != nil {
			logger.Logger().Warnf("removing staging directory %s: %v", staging, err)
		}
	}

	top, err := archive.Extract(source, staging)
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("extracting %s: %w", source, err)
	}

	// A tarball with a single top-level directory is repacked from inside it.
	if len(top) == 1 {
		single := filepath.Join(staging, top[0])
		if fi, err := os.Stat(single); err == nil && fi.IsDir() {
			return single, cleanup, nil
		}
	}
	return staging, cleanup, nil
}

func writeTarball(outPath, srcRoot string, opts Options) (int64, error) {
	tmp, err := os.CreateTemp(opts.OutDir, "."+opts.OutputName()+".*")
	if err != nil {
		return 0, fmt.Errorf("creating output in %s: %w", opts.OutDir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	counter := &countingWriter{w: tmp}
	var dst io.Writer = counter
	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("packing "+opts.OutputName()),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
		dst = io.MultiWriter(counter, bar)
	}

	cw, err := archive.NewWriter(dst, opts.Compression)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := archive.Create(cw, srcRoot, opts.Name+"-"+opts.Version); err != nil {
		cw.Close()
		tmp.Close()
		return 0, fmt.Errorf("packing %s: %w", srcRoot, err)
	}
	if err := cw.Close(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("flushing compressor: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(opts.Progress)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing output: %w", err)
	}
	if err := os.Rename(tmpName, outPath); err != nil {
		return 0, fmt.Errorf("moving output into place: %w", err)
	}
	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
