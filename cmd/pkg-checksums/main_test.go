package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestResolveRequestedLogLevelPrefersExplicitFlag(t *testing.T) {
	prev := logLevel
	logLevel = "warn"
	t.Cleanup(func() {
		logLevel = prev
	})

	if got := resolveRequestedLogLevel(nil); got != "warn" {
		t.Fatalf("expected explicit log level to win, got %q", got)
	}
}

func TestResolveRequestedLogLevelUsesVerboseFallback(t *testing.T) {
	prev := logLevel
	logLevel = ""
	t.Cleanup(func() {
		logLevel = prev
	})

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("verbose", false, "")
	if err := cmd.Flags().Set("verbose", "true"); err != nil {
		t.Fatalf("set verbose: %v", err)
	}

	if got := resolveRequestedLogLevel(cmd); got != "debug" {
		t.Fatalf("expected verbose flag to set debug level, got %q", got)
	}
}

func TestResolveRequestedLogLevelIgnoresUnsetVerbose(t *testing.T) {
	prev := logLevel
	logLevel = ""
	t.Cleanup(func() {
		logLevel = prev
	})

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("verbose", false, "")

	if got := resolveRequestedLogLevel(cmd); got != "" {
		t.Fatalf("expected empty when verbose not set, got %q", got)
	}
}

func TestAttachLoggingHooksAddsHookToSubcommands(t *testing.T) {
	root := createRootCommand()
	if root.PersistentPreRunE == nil {
		t.Fatal("expected logging hook on root command")
	}
	for _, name := range []string{"fix-checksums", "apply-patches", "repack", "validate-config"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("find %s command: %v", name, err)
		}
		if cmd == nil || cmd.Name() != name {
			t.Fatalf("%s command not found", name)
		}
		if cmd.PersistentPreRunE == nil {
			t.Fatalf("expected logging hook on %s command", name)
		}
	}
}

// runRoot executes a fresh command tree and returns what it wrote.
func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := createRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// setupDistTree creates a distribution root with package foo at version
// 1.0.p2 and a matching upstream tarball, and points SAGE_ROOT at it.
func setupDistTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "upstream", "foo-1.0.tar.gz"), "hello\n")
	writeFile(t, filepath.Join(root, "build", "pkgs", "foo", "package-version.txt"), "1.0.p2\n")
	t.Setenv("SAGE_ROOT", root)
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const fooManifest = "tarball=foo-VERSION.tar.gz\n" +
	"sha1=f572d396fae9206628714fb2ce00f72e94f2258f\n" +
	"md5=b1946ac92492d2347c6235b4d2611184\n" +
	"cksum=3015617425\n"

func TestRootCommandFixesAllUpstreamTarballs(t *testing.T) {
	root := setupDistTree(t)

	_, stderr, err := runRoot(t)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stderr, "Updating checksum of foo-1.0.tar.gz") {
		t.Errorf("expected progress line, got %q", stderr)
	}

	got, err := os.ReadFile(filepath.Join(root, "build", "pkgs", "foo", "checksums.ini"))
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	if string(got) != fooManifest {
		t.Errorf("manifest mismatch:\n got: %q\nwant: %q", got, fooManifest)
	}
}

func TestFixChecksumsExplicitArtifactAndReport(t *testing.T) {
	root := setupDistTree(t)
	other := filepath.Join(root, "upstream", "foo-0.9.tar.gz")
	writeFile(t, other, "old\n")
	report := filepath.Join(t.TempDir(), "report.txt")

	_, _, err := runRoot(t, "fix-checksums", "--report", report, other, filepath.Join(root, "upstream", "foo-1.0.tar.gz"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	manifestPath := filepath.Join(root, "build", "pkgs", "foo", "checksums.ini")
	if !strings.Contains(string(data), manifestPath) {
		t.Errorf("report should list %s, got %q", manifestPath, data)
	}
	if !strings.HasPrefix(string(data), "# UpdatedManifests ") {
		t.Errorf("unexpected report header: %q", data)
	}
}

func TestFixChecksumsSkipsWithoutFailing(t *testing.T) {
	root := setupDistTree(t)
	unknown := filepath.Join(root, "upstream", "unknown-1.0.tar.gz")
	writeFile(t, unknown, "x")

	if _, _, err := runRoot(t, "fix-checksums", unknown, filepath.Join(root, "missing-1.0.tar.gz")); err != nil {
		t.Fatalf("skipped or failing artifacts must not fail the run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "build", "pkgs", "foo", "checksums.ini")); !os.IsNotExist(err) {
		t.Errorf("no manifest should be written, stat err=%v", err)
	}
}

func TestFixChecksumsRequiresRoot(t *testing.T) {
	t.Setenv("SAGE_ROOT", "")

	_, _, err := runRoot(t, "fix-checksums")
	if err == nil {
		t.Fatal("expected error without SAGE_ROOT")
	}
	if !strings.Contains(err.Error(), "SAGE_ROOT") {
		t.Errorf("error should mention SAGE_ROOT, got %v", err)
	}
}

func TestConfigFileProvidesRoot(t *testing.T) {
	root := setupDistTree(t)
	t.Setenv("SAGE_ROOT", "")
	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	writeFile(t, cfgPath, "root: "+root+"\nlogging:\n  level: warn\n")

	if _, _, err := runRoot(t, "--config", cfgPath); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "build", "pkgs", "foo", "checksums.ini")); err != nil {
		t.Errorf("manifest not written: %v", err)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	setupDistTree(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	writeFile(t, cfgPath, "logging:\n  level: loud\n")

	if _, _, err := runRoot(t, "--config", cfgPath); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestVerboseFlagSetsEffectiveLevel(t *testing.T) {
	setupDistTree(t)

	if _, _, err := runRoot(t, "--verbose", "fix-checksums"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if appConfig == nil || appConfig.Logging.Level != "debug" {
		t.Fatalf("expected effective level debug, got %+v", appConfig)
	}

	if _, _, err := runRoot(t, "fix-checksums"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if appConfig.Logging.Level != "info" {
		t.Errorf("expected configured level info, got %q", appConfig.Logging.Level)
	}
}
