package synth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Report file names, one line per skipped key
const (
	ReportMissingTimetables = "missingTimetables.txt"
	ReportMissingStops      = "missingStops.txt"
	ReportMissingShapes     = "missingShapes.txt"
)

// WriteReports persists the itemized skip lists for later inspection
func WriteReports(dir string, skips Skips) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	reports := []struct {
		name  string
		lines []string
	}{
		{ReportMissingTimetables, skips.NoTimetables},
		{ReportMissingStops, skips.NoStops},
		{ReportMissingShapes, skips.NoShapes},
	}

	for _, report := range reports {
		if err := writeLines(filepath.Join(dir, report.name), report.lines); err != nil {
			return err
		}
	}
	return nil
}

func writeLines(path string, lines []string) error {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
