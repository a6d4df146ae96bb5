package archive

import (
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies the codec wrapped around a tar stream.
type Compression string

const (
	None  Compression = "none"
	Gzip  Compression = "gz"
	Bzip2 Compression = "bz2"
	XZ    Compression = "xz"
	Zstd  Compression = "zst"
)

var (
	ErrUnknownCompression = errors.New("unknown archive compression")
	ErrReadOnly           = errors.New("compression can only be read")
)

// Suffix is the file name ending used for tarballs of this compression.
func (c Compression) Suffix() string {
	if c == None {
		return ".tar"
	}
	return ".tar." + string(c)
}

// Writable reports whether NewWriter supports c.
func (c Compression) Writable() bool {
	switch c {
	case None, Gzip, XZ, Zstd:
		return true
	}
	return false
}

// ParseCompression maps a user supplied name onto a Compression.
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimPrefix(name, "."))); c {
	case None, Gzip, Bzip2, XZ, Zstd:
		return c, nil
	case "", "tar":
		return None, nil
	case "gzip", "tgz":
		return Gzip, nil
	case "bzip2":
		return Bzip2, nil
	case "zstd":
		return Zstd, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCompression, name)
}

// DetectCompression derives the compression from an archive file name.
func DetectCompression(name string) (Compression, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return Gzip, nil
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"):
		return Bzip2, nil
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return XZ, nil
	case strings.HasSuffix(lower, ".tar.zst"):
		return Zstd, nil
	case strings.HasSuffix(lower, ".tar"):
		return None, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCompression, name)
}

// NewReader wraps r with a decompressor for c. The returned closer releases
// decoder resources; it does not close r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return zr, nil
	case Bzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating xz reader: %w", err)
		}
		return io.NopCloser(xr), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		return zstdReadCloser{dec}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, string(c))
}

// NewWriter wraps w with a compressor for c. Closing the result flushes the
// compressor but does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		gw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("creating gzip writer: %w", err)
		}
		return gw, nil
	case XZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("creating xz writer: %w", err)
		}
		return xw, nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, fmt.Errorf("creating zstd writer: %w", err)
		}
		return enc, nil
	case Bzip2:
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, string(c))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, string(c))
}

type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
