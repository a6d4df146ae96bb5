package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLoggerBeforeInitIsNoop(t *testing.T) {
	prev := global
	global = nil
	t.Cleanup(func() { global = prev })

	if Logger() == nil {
		t.Fatal("expected a non-nil no-op logger")
	}
	Logger().Infof("dropped %d", 1)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "", want: zapcore.InfoLevel},
		{in: "debug", want: zapcore.DebugLevel},
		{in: " WARN ", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "fatal", wantErr: true},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init("chatty"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestWriteReportToFile(t *testing.T) {
	ResetReport("UpdatedManifests")
	t.Cleanup(func() { ResetReport("UpdatedManifests") })

	AddReportItem("build/pkgs/foo/checksums.ini")
	AddReportItem("build/pkgs/bar/checksums.ini")

	reportPath := filepath.Join(t.TempDir(), "reports", "run.txt")
	if err := WriteReportToFile(reportPath); err != nil {
		t.Fatalf("WriteReportToFile failed: %v", err)
	}
	if len(GlobalStringListReport.Items) != 0 {
		t.Errorf("expected items to be cleared, got %v", GlobalStringListReport.Items)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# UpdatedManifests ") {
		t.Errorf("missing title header, got:\n%s", content)
	}
	if !strings.Contains(content, "build/pkgs/foo/checksums.ini\nbuild/pkgs/bar/checksums.ini\n\n") {
		t.Errorf("unexpected report body:\n%s", content)
	}

	// A second write appends instead of truncating.
	AddReportItem("build/pkgs/baz/checksums.ini")
	if err := WriteReportToFile(reportPath); err != nil {
		t.Fatalf("second WriteReportToFile failed: %v", err)
	}
	data, _ = os.ReadFile(reportPath)
	if strings.Count(string(data), "# UpdatedManifests") != 2 {
		t.Errorf("expected two report blocks, got:\n%s", data)
	}
}
