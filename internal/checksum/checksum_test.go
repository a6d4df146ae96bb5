package checksum

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCksumKnownValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  uint32
	}{
		{name: "empty", input: "", want: 4294967295},
		{name: "check string", input: "123456789", want: 930766865},
		{name: "hello newline", input: "hello\n", want: 3015617425},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCksum()
			c.Write([]byte(tt.input))
			if got := c.Sum32(); got != tt.want {
				t.Errorf("Sum32() = %d, want %d", got, tt.want)
			}
			if c.Len() != uint64(len(tt.input)) {
				t.Errorf("Len() = %d, want %d", c.Len(), len(tt.input))
			}
		})
	}
}

func TestCksumChunkedWritesMatchSingleWrite(t *testing.T) {
	data := bytes.Repeat([]byte("sage upstream tarball "), 5000)

	whole := NewCksum()
	whole.Write(data)

	chunked := NewCksum()
	for i := 0; i < len(data); i += 7 {
		end := i + 7
		if end > len(data) {
			end = len(data)
		}
		chunked.Write(data[i:end])
	}

	if whole.Sum32() != chunked.Sum32() {
		t.Errorf("chunked sum %d differs from single write %d", chunked.Sum32(), whole.Sum32())
	}
}

func TestCksumSumDoesNotMutateState(t *testing.T) {
	c := NewCksum()
	c.Write([]byte("1234"))
	first := c.Sum32()
	if second := c.Sum32(); first != second {
		t.Fatalf("Sum32 changed between calls: %d then %d", first, second)
	}
	c.Write([]byte("56789"))
	if got := c.Sum32(); got != 930766865 {
		t.Errorf("Sum32 after continued writes = %d, want 930766865", got)
	}

	b := c.Sum(nil)
	if len(b) != c.Size() {
		t.Fatalf("Sum returned %d bytes, want %d", len(b), c.Size())
	}

	c.Reset()
	if c.Sum32() != 4294967295 || c.Len() != 0 {
		t.Errorf("Reset did not restore the empty state")
	}
}

func TestCompute(t *testing.T) {
	sums, err := Compute(strings.NewReader("hello\n"))
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	want := Sums{
		SHA1:  "f572d396fae9206628714fb2ce00f72e94f2258f",
		MD5:   "b1946ac92492d2347c6235b4d2611184",
		Cksum: 3015617425,
		Size:  6,
	}
	if sums != want {
		t.Errorf("Compute() = %+v, want %+v", sums, want)
	}
}

func TestComputeEmpty(t *testing.T) {
	sums, err := Compute(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if sums.SHA1 != "da39a3ee5e6b4b0d3255bfef95601890afd80709" {
		t.Errorf("unexpected sha1 %s", sums.SHA1)
	}
	if sums.MD5 != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("unexpected md5 %s", sums.MD5)
	}
	if sums.Cksum != 4294967295 {
		t.Errorf("unexpected cksum %d", sums.Cksum)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestComputeReadError(t *testing.T) {
	if _, err := Compute(failingReader{}); err == nil {
		t.Fatal("expected error from failing reader")
	}
}

func TestComputeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foo-1.2.tar.gz")
	if err := os.WriteFile(path, []byte("123456789"), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	sums, err := ComputeFile(path)
	if err != nil {
		t.Fatalf("ComputeFile failed: %v", err)
	}
	if sums.Cksum != 930766865 || sums.Size != 9 {
		t.Errorf("unexpected sums %+v", sums)
	}

	if _, err := ComputeFile(filepath.Join(t.TempDir(), "missing.tar.gz")); err == nil {
		t.Error("expected error for missing file")
	}
}
