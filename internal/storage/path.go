package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var reportFilenamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}\.(xlsx|parquet)$`)

// BuildReportKey returns the object key for a generated report,
// partitioned by date so retention sweeps stay cheap.
func BuildReportKey(generatedAt time.Time, filename string) (string, error) {
	if err := ValidateReportFilename(filename); err != nil {
		return "", err
	}
	ts := generatedAt.UTC()
	return path.Join(
		"reports",
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		filename,
	), nil
}

func ValidateReportFilename(filename string) error {
	if !reportFilenamePattern.MatchString(filename) {
		return fmt.Errorf("invalid report filename: %q", filename)
	}
	return nil
}
