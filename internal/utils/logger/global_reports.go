package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type StringListReport struct {
	Title string
	Items []string
}

var GlobalStringListReport StringListReport

func init() {
	ResetReport("UpdatedManifests")
}

// ResetReport empties the global report and gives it a new title.
func ResetReport(title string) {
	GlobalStringListReport = StringListReport{
		Title: title,
		Items: []string{},
	}
}

// AddReportItem records one line in the global report.
func AddReportItem(item string) {
	GlobalStringListReport.Items = append(GlobalStringListReport.Items, item)
}

// WriteReportToFile appends the GlobalStringListReport to reportPath as a titled
// block followed by a blank line, then clears the collected items.
func WriteReportToFile(reportPath string) error {
	if dir := filepath.Dir(reportPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	title := GlobalStringListReport.Title
	if title == "" {
		title = "untitled"
	}

	f, err := os.OpenFile(reportPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "# %s %s\n", title, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("writing header to file: %w", err)
	}
	for _, item := range GlobalStringListReport.Items {
		if _, err := fmt.Fprintln(f, item); err != nil {
			return fmt.Errorf("writing to file: %w", err)
		}
	}

	GlobalStringListReport.Items = []string{}
	if _, err := fmt.Fprintln(f); err != nil {
		return fmt.Errorf("writing new line to file: %w", err)
	}

	return nil
}
