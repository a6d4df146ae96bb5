package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/open-edge-platform/pkg-checksums/internal/manifest"
	"github.com/open-edge-platform/pkg-checksums/internal/utils/shell"
)

func TestValidateConfigCommand(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "good.yml")
		writeFile(t, path, "root: /opt/dist\nrepack:\n  compression: xz\n")

		stdout, _, err := runRoot(t, "validate-config", path)
		if err != nil {
			t.Fatalf("validate-config failed: %v", err)
		}
		if !strings.Contains(stdout, "valid configuration") {
			t.Errorf("unexpected output %q", stdout)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yml")
		writeFile(t, path, "rot: /opt/dist\n")

		if _, _, err := runRoot(t, "validate-config", path); err == nil {
			t.Fatal("expected schema error")
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		if _, _, err := runRoot(t, "validate-config"); err == nil {
			t.Fatal("expected argument error")
		}
	})
}

func TestApplyPatchesCommand(t *testing.T) {
	base := t.TempDir()
	srcDir := filepath.Join(base, "src")
	if err := os.MkdirAll(srcDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(base, "patches", "01-fix.patch"), "--- a\n+++ b\n")

	originalExecutor := shell.Default
	t.Cleanup(func() { shell.Default = originalExecutor })
	mock := shell.NewMockExecutor([]shell.MockCommand{
		{Pattern: `^command -v patch`, Output: "/usr/bin/patch\n"},
		{Pattern: `^patch `, Output: ""},
	})
	shell.Default = mock

	_, stderr, err := runRoot(t, "apply-patches", "-p", "0", "--dry-run", srcDir)
	if err != nil {
		t.Fatalf("apply-patches failed: %v", err)
	}
	if !strings.Contains(stderr, "Applying 01-fix.patch") {
		t.Errorf("expected progress line, got %q", stderr)
	}

	var patchCmd *shell.ExecutedCommand
	for _, c := range mock.Executed() {
		if strings.HasPrefix(c.Cmd, "patch ") {
			c := c
			patchCmd = &c
		}
	}
	if patchCmd == nil {
		t.Fatalf("patch was not run: %+v", mock.Executed())
	}
	if !strings.Contains(patchCmd.Cmd, "-p0") || !strings.Contains(patchCmd.Cmd, "--dry-run") {
		t.Errorf("unexpected patch command %q", patchCmd.Cmd)
	}
	if patchCmd.Dir != srcDir {
		t.Errorf("patch ran in %q, want %q", patchCmd.Dir, srcDir)
	}
}

func TestApplyPatchesMissingPatchDir(t *testing.T) {
	srcDir := t.TempDir()
	if _, _, err := runRoot(t, "apply-patches", "-d", filepath.Join(srcDir, "nope"), srcDir); err == nil {
		t.Fatal("expected error for missing patch directory")
	}
}

func TestRepackCommandWithFixChecksums(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SAGE_ROOT", root)
	writeFile(t, filepath.Join(root, "build", "pkgs", "bar", "package-version.txt"), "2.0\n")

	src := filepath.Join(t.TempDir(), "bar-src")
	writeFile(t, filepath.Join(src, "README"), "bar\n")

	stdout, _, err := runRoot(t, "repack", "--name", "bar", "--version", "2.0",
		"--compression", "none", "--quiet", "--fix-checksums", src)
	if err != nil {
		t.Fatalf("repack failed: %v", err)
	}

	want := filepath.Join(root, "upstream", "bar-2.0.tar")
	if strings.TrimSpace(stdout) != want {
		t.Errorf("expected output path %q, got %q", want, stdout)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("tarball missing: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "build", "pkgs", "bar", "checksums.ini"))
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	m, err := manifest.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parsing manifest: %v", err)
	}
	if m.Tarball != "bar-VERSION.tar" {
		t.Errorf("unexpected tarball template %q", m.Tarball)
	}
}

func TestRepackCommandNeedsOutOrRoot(t *testing.T) {
	t.Setenv("SAGE_ROOT", "")
	src := t.TempDir()

	if _, _, err := runRoot(t, "repack", "--name", "bar", "--version", "2.0", src); err == nil {
		t.Fatal("expected error without --out or SAGE_ROOT")
	}
}

func TestRepackCommandRequiresNameAndVersion(t *testing.T) {
	src := t.TempDir()
	if _, _, err := runRoot(t, "repack", "--out", t.TempDir(), src); err == nil {
		t.Fatal("expected missing flag error")
	}
}
