// Package checksum computes the digests recorded in package checksum manifests.
//
// All digests are taken in a single pass over the input so that they always
// describe the same bytes.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Sums holds the digests of one artifact.
type Sums struct {
	SHA1  string
	MD5   string
	Cksum uint32
	Size  int64
}

// Compute reads r to EOF and returns its SHA-1, MD5 and POSIX cksum digests.
func Compute(r io.Reader) (Sums, error) {
	sha := sha1.New()
	md := md5.New()
	ck := NewCksum()

	n, err := io.Copy(io.MultiWriter(sha, md, ck), r)
	if err != nil {
		return Sums{}, fmt.Errorf("reading input: %w", err)
	}

	return Sums{
		SHA1:  hex.EncodeToString(sha.Sum(nil)),
		MD5:   hex.EncodeToString(md.Sum(nil)),
		Cksum: ck.Sum32(),
		Size:  n,
	}, nil
}

// ComputeFile opens path and computes its digests.
func ComputeFile(path string) (Sums, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sums{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sums, err := Compute(f)
	if err != nil {
		return Sums{}, fmt.Errorf("computing digests of %s: %w", path, err)
	}
	return sums, nil
}
